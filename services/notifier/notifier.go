package notifier

import (
	"context"
	"errors"
	"fmt"

	"sjsage522/aptwatcher/internal/crawler"
	"sjsage522/aptwatcher/logger"
	apperrors "sjsage522/aptwatcher/pkg/errors"
)

const (
	component = "notifier"

	// Subject is the subject line of every alert
	Subject = "New Listing Alert"
)

// Notifier announces new listings
type Notifier interface {
	// Ready prepares the notifier for a cycle. An error means nothing can be
	// sent this cycle.
	Ready() error

	// Notify sends one alert for listing
	Notify(ctx context.Context, listing crawler.Listing) error
}

// SMSNotifier sends alerts as email to carrier SMS gateways
// (5551234567@vtext.com and the like).
type SMSNotifier struct {
	mailer         Mailer
	sender         string
	credentialPath string
	recipients     []string
	secret         string
	log            *logger.Logger
}

// Ensure SMSNotifier implements Notifier
var _ Notifier = (*SMSNotifier)(nil)

// NewSMSNotifier creates a new SMS notifier
func NewSMSNotifier(mailer Mailer, sender, credentialPath string, recipients []string) *SMSNotifier {
	return &SMSNotifier{
		mailer:         mailer,
		sender:         sender,
		credentialPath: credentialPath,
		recipients:     append([]string(nil), recipients...),
		log:            logger.ForNotifier(),
	}
}

// Ready reloads the sender credential so a rotated secret is picked up on
// the next cycle.
func (n *SMSNotifier) Ready() error {
	secret, err := ReadCredential(n.credentialPath)
	if err != nil {
		n.secret = ""
		return err
	}
	n.secret = secret
	return nil
}

// FormatMessage renders the alert text for listing
func FormatMessage(listing crawler.Listing) string {
	link := listing.Link
	if link == "" {
		link = "N/A"
	}
	return fmt.Sprintf("New listing found: %s , Price: %s, Sq Feet: %d, Link: %s",
		listing.Name, listing.Price, listing.SizeSqFt, link)
}

// Notify sends the alert to every recipient. A failed recipient is logged
// and does not stop delivery to the rest; the returned error joins one
// delivery error per failed recipient.
func (n *SMSNotifier) Notify(ctx context.Context, listing crawler.Listing) error {
	if n.secret == "" {
		return apperrors.NewCredentialMissing(component, "notifier has no credential for this cycle", nil)
	}

	body := FormatMessage(listing)
	log := n.log.WithField("listing_id", listing.ID)

	var errs []error
	for _, recipient := range n.recipients {
		msg := Message{
			From:    n.sender,
			To:      recipient,
			Subject: Subject,
			Body:    body,
		}

		if err := n.mailer.Send(ctx, n.secret, msg); err != nil {
			deliveryErr := apperrors.NewDelivery(component, fmt.Sprintf("send to %s", recipient), err)
			log.Error().Err(err).Str("recipient", recipient).Msg("Failed to send message")
			errs = append(errs, deliveryErr)
			continue
		}
		log.Info().Str("recipient", recipient).Msg("Message sent")
	}

	return errors.Join(errs...)
}
