package client

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// WorkerIdentity names this worker in report metadata: instance and hostname
// for the operator, a random suffix to tell replicas on the same host apart.
func WorkerIdentity(instance string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	suffix := uuid.NewString()[:8]
	if instance == "" {
		return fmt.Sprintf("%s-%s", host, suffix)
	}
	return fmt.Sprintf("%s@%s-%s", instance, host, suffix)
}
