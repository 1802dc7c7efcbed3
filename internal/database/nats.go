package database

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// ConnectNATS dials the NATS server used for submission event fan-out.
// An empty URL disables messaging and returns a nil connection.
func ConnectNATS(url, appName string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url, nats.Name(appName))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return conn, nil
}
