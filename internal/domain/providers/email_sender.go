package providers

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// EmailSender delivers transactional email
type EmailSender interface {
	Send(ctx context.Context, msg entities.EmailMessage) error
}
