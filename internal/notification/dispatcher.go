package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"sync"
	"time"

	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// DispatcherConfig holds Dispatcher settings.
type DispatcherConfig struct {
	// AppBaseURL prefixes the carpool links in messages.
	AppBaseURL string
	// Timeout bounds each delivery.
	Timeout time.Duration
	// Async delivers in the background. Lookups still happen inline.
	Async bool
}

// Dispatcher turns carpool events into email. It implements carpool.Notifier.
type Dispatcher struct {
	store  carpool.Store
	sender Sender
	config DispatcherConfig
	logger *slog.Logger
	wg     sync.WaitGroup
}

var _ carpool.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher that looks recipients up in store.
func NewDispatcher(store carpool.Store, sender Sender, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:  store,
		sender: sender,
		config: config,
		logger: logger,
	}
}

// NotifyInvited tells the invitee who invited them.
func (d *Dispatcher) NotifyInvited(ctx context.Context, inviteeID, carpoolID int64) error {
	invitee, err := d.store.Users().GetByID(ctx, inviteeID)
	if err != nil {
		return err
	}
	c, err := d.store.Carpools().GetByID(ctx, carpoolID)
	if err != nil {
		return err
	}
	inviter, err := d.store.Users().GetByID(ctx, c.CreatorID)
	if err != nil {
		return err
	}

	subject, text, body := invitedMessage(inviter.Name, c.Name, d.link(carpoolID))
	return d.deliver(ctx, "invited", invitee, subject, text, body)
}

// NotifyRequested tells the carpool owner about a join request.
func (d *Dispatcher) NotifyRequested(ctx context.Context, requesterID, ownerID, carpoolID int64) error {
	requester, err := d.store.Users().GetByID(ctx, requesterID)
	if err != nil {
		return err
	}
	owner, err := d.store.Users().GetByID(ctx, ownerID)
	if err != nil {
		return err
	}
	c, err := d.store.Carpools().GetByID(ctx, carpoolID)
	if err != nil {
		return err
	}

	subject, text, body := requestedMessage(requester.Name, c.Name, d.link(carpoolID))
	return d.deliver(ctx, "requested", owner, subject, text, body)
}

// NotifyRequestAccepted tells the requester they joined the carpool.
func (d *Dispatcher) NotifyRequestAccepted(ctx context.Context, requesterID, carpoolID int64) error {
	requester, err := d.store.Users().GetByID(ctx, requesterID)
	if err != nil {
		return err
	}
	c, err := d.store.Carpools().GetByID(ctx, carpoolID)
	if err != nil {
		return err
	}

	subject, text, body := acceptedMessage(c.Name, d.link(carpoolID))
	return d.deliver(ctx, "request accepted", requester, subject, text, body)
}

// Wait blocks until background deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) link(carpoolID int64) string {
	return d.config.AppBaseURL + "/carpools/" + strconv.FormatInt(carpoolID, 10)
}

func (d *Dispatcher) deliver(ctx context.Context, kind string, to *domain.User, subject, text, body string) error {
	addr, err := mail.ParseAddress(to.Email)
	if err != nil {
		return fmt.Errorf("user %d has no deliverable email: %w", to.ID, err)
	}

	msg := Message{
		To:      addr.Address,
		ToName:  to.Name,
		Subject: subject,
		Text:    text,
		HTML:    body,
	}

	if !d.config.Async {
		return d.send(ctx, kind, to.ID, msg)
	}

	// The request context ends with the response; keep its values only.
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.send(bg, kind, to.ID, msg); err != nil {
			d.logger.Error("failed to send notification",
				"kind", kind,
				"user_id", to.ID,
				"error", err,
			)
		}
	}()
	return nil
}

func (d *Dispatcher) send(ctx context.Context, kind string, userID int64, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		return err
	}
	d.logger.Info("notification sent", "kind", kind, "user_id", userID)
	return nil
}
