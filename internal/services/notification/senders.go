package notification

import (
	"fmt"
	"io"
	stdlog "log"
	"net/url"
	"strings"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/rs/zerolog/log"

	"sentinel-core-go/internal/config"
	"sentinel-core-go/internal/models"
)

// Sender delivers one message to one recipient on one channel
type Sender interface {
	Send(user *models.User, title, message string) error
}

// NewSenders builds the channel senders from config. Channels without a
// configured backend get a logging stub so dispatch bookkeeping still
// works in development.
func NewSenders(cfg *config.Config) map[models.NotificationChannel]Sender {
	senders := map[models.NotificationChannel]Sender{
		models.ChannelEmail: &noopSender{channel: models.ChannelEmail},
		models.ChannelSMS:   &noopSender{channel: models.ChannelSMS},
		models.ChannelPush:  &noopSender{channel: models.ChannelPush},
	}

	if cfg.SMTPHost != "" {
		senders[models.ChannelEmail] = &shoutrrrSender{
			channel: models.ChannelEmail,
			urlFor: func(user *models.User) string {
				return fmt.Sprintf("smtp://%s:%s@%s:%d/?from=%s&to=%s",
					url.QueryEscape(cfg.SMTPUser), url.QueryEscape(cfg.SMTPPassword),
					cfg.SMTPHost, cfg.SMTPPort,
					url.QueryEscape(cfg.EmailFrom), url.QueryEscape(user.Email))
			},
		}
	}
	if cfg.SMSGateway != "" {
		senders[models.ChannelSMS] = &shoutrrrSender{
			channel: models.ChannelSMS,
			urlFor: func(user *models.User) string {
				// gateway URL may carry a {phone} placeholder for the recipient
				return strings.ReplaceAll(cfg.SMSGateway, "{phone}", url.QueryEscape(user.PhoneNumber))
			},
		}
	}
	if cfg.PushGateway != "" {
		senders[models.ChannelPush] = &shoutrrrSender{
			channel: models.ChannelPush,
			urlFor:  func(*models.User) string { return cfg.PushGateway },
		}
	}
	return senders
}

// shoutrrrSender delivers through a shoutrrr service URL built per
// recipient
type shoutrrrSender struct {
	channel models.NotificationChannel
	urlFor  func(user *models.User) string
}

func (s *shoutrrrSender) Send(user *models.User, title, message string) error {
	sender, err := shoutrrr.CreateSender(s.urlFor(user))
	if err != nil {
		return fmt.Errorf("invalid %s service URL: %w", s.channel, err)
	}
	sender.SetLogger(stdlog.New(io.Discard, "", 0))

	params := stypes.Params{}
	params.SetTitle(title)
	for _, err := range sender.Send(message, &params) {
		if err != nil {
			return fmt.Errorf("%s delivery failed: %w", s.channel, err)
		}
	}
	return nil
}

// noopSender records the intent and succeeds. Used when a channel has no
// backend configured.
type noopSender struct {
	channel models.NotificationChannel
}

func (s *noopSender) Send(user *models.User, title, message string) error {
	log.Info().
		Str("channel", s.channel.String()).
		Int64("user_id", user.ID).
		Str("title", title).
		Msg("Notification channel has no backend configured, logging only")
	return nil
}
