package events

import (
	"fmt"
	"os"

	"github.com/oklog/ulid/v2"
)

// NewConsumerID builds a consumer name unique to this process.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "api"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), ulid.Make().String())
}
