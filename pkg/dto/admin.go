package dto

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/fodqa/fod-regression/pkg/uniquetag"
)

// Attribute is a custom tenant attribute.
type Attribute struct {
	AttributeName              string
	AttributeType              AttributeType
	AttributeDataType          AttributeDataType
	PickListValues             []string
	Required                   bool
	EditableOnlyBySecurityLead bool
}

// NewAttribute returns an optional text application attribute.
func NewAttribute() *Attribute {
	return &Attribute{
		AttributeName:     uniquetag.WithPrefix("Attr"),
		AttributeType:     AttributeTypeApplication,
		AttributeDataType: AttributeDataText,
	}
}

func (a *Attribute) Validate() error {
	var errs []error
	if a.AttributeName == "" {
		errs = append(errs, errors.New("attribute name is required"))
	}
	if !oneOf(a.AttributeType, AttributeTypes) {
		errs = append(errs, fmt.Errorf("unknown attribute type %q", a.AttributeType))
	}
	if !oneOf(a.AttributeDataType, AttributeDataTypes) {
		errs = append(errs, fmt.Errorf("unknown attribute data type %q", a.AttributeDataType))
	}
	if a.AttributeDataType == AttributeDataPicklist && len(a.PickListValues) == 0 {
		errs = append(errs, errors.New("picklist attribute needs values"))
	}
	return errors.Join(errs...)
}

// Webhook is a tenant webhook subscription.
type Webhook struct {
	Name       string
	PayloadURL string
	Secret     string
	Events     []WebhookEvent
	Enabled    bool
}

// NewWebhook returns an enabled webhook subscribed to scan start and completion.
func NewWebhook() *Webhook {
	tag := uniquetag.Generate()
	return &Webhook{
		Name:       "Webhook" + tag,
		PayloadURL: "https://webhook.fodtest.example.com/" + tag,
		Secret:     "secret" + tag,
		Events:     []WebhookEvent{WebhookScanStarted, WebhookScanCompleted},
		Enabled:    true,
	}
}

// Subscribes reports whether the webhook has event selected.
func (w *Webhook) Subscribes(event WebhookEvent) bool {
	return oneOf(event, w.Events)
}

func (w *Webhook) Validate() error {
	var errs []error
	u, err := url.Parse(w.PayloadURL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		errs = append(errs, fmt.Errorf("invalid payload url %q", w.PayloadURL))
	}
	for _, e := range w.Events {
		if !oneOf(e, WebhookEvents) {
			errs = append(errs, fmt.Errorf("unknown webhook event %q", e))
		}
	}
	return errors.Join(errs...)
}
