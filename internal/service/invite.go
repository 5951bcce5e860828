package service

import (
	"context"
	"fmt"
)

// SendInvite dispatches one invitation email. No retry, no dedup of
// repeated invites to the same address.
func (s *Service) SendInvite(_ context.Context, email, inviterName string) error {
	const op = "service.SendInvite"

	if err := s.mailer.SendInvite(email, inviterName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
