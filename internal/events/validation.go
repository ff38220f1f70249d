package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/beanbook/beanbook/internal/model"
)

// DecodeBrewUpdate parses and checks a stream payload.
// An event may lack one snapshot; the handler decides what that means.
func DecodeBrewUpdate(payload string) (model.BrewUpdate, error) {
	var update model.BrewUpdate
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		return model.BrewUpdate{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := ValidateBrewUpdate(update); err != nil {
		return model.BrewUpdate{}, err
	}
	return update, nil
}

// ValidateBrewUpdate checks the fields every event must carry.
func ValidateBrewUpdate(update model.BrewUpdate) error {
	if update.Before == nil && update.After == nil {
		return errors.New("event carries no snapshot")
	}
	if update.Before != nil && update.Before.ID == "" {
		return errors.New("before snapshot has no id")
	}
	if update.After != nil && update.After.ID == "" {
		return errors.New("after snapshot has no id")
	}
	if update.Before != nil && update.After != nil && update.Before.ID != update.After.ID {
		return fmt.Errorf("snapshots belong to different brews: %s, %s", update.Before.ID, update.After.ID)
	}
	if update.OccurredAt.IsZero() {
		return errors.New("occurred_at must be set")
	}
	return nil
}
