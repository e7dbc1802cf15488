package main

import (
	"context"
	"fmt"

	"csvagent/cmd/csvagent/chat"
)

// runChat wires a session and hands it to the TUI. Data given via --data
// is loaded before the first prompt.
func runChat(ctx context.Context) error {
	session, cleanup, err := newSession()
	if err != nil {
		return err
	}
	defer cleanup()

	if dataPath != "" {
		if _, err := session.Load(ctx, dataPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", dataPath, err)
		}
	}
	return chat.Run(ctx, session)
}
