package actions

import (
	"fmt"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/pages"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

type Webhooks struct {
	*base
}

// CreateWebhooks adds every hook in the tenant administration and checks each
// one is listed afterwards.
func (w *Webhooks) CreateWebhooks(hooks ...*dto.Webhook) (*pages.WebhooksPage, error) {
	admin, err := w.navbar().OpenAdministration()
	if err != nil {
		return nil, err
	}
	list, err := admin.OpenWebhooks()
	if err != nil {
		return nil, err
	}
	for _, hook := range hooks {
		if err := hook.Validate(); err != nil {
			return nil, fmt.Errorf("invalid webhook: %w", err)
		}
		w.log().Infow("Creating webhook", "name", hook.Name, "url", hook.PayloadURL, "events", hook.Events)
		if list, err = w.create(list, hook); err != nil {
			return nil, fmt.Errorf("create webhook %s: %w", hook.PayloadURL, err)
		}
	}
	return list, nil
}

func (w *Webhooks) create(list *pages.WebhooksPage, hook *dto.Webhook) (*pages.WebhooksPage, error) {
	popup, err := list.PressAddWebhook()
	if err != nil {
		return nil, err
	}
	if err := popup.Fill(hook); err != nil {
		return nil, err
	}
	if list, err = popup.ClickSave(); err != nil {
		return nil, err
	}
	if list, err = list.CloseAlert(); err != nil {
		return nil, err
	}
	if list, err = list.FindWebhook(hook.PayloadURL); err != nil {
		return nil, err
	}
	cells, err := list.GetAllWebhooks()
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, testerr.ElementNotCreated("webhook", hook.PayloadURL)
	}
	return list, nil
}

type Attributes struct {
	*base
}

// CreateAttribute adds attr in the tenant administration.
func (a *Attributes) CreateAttribute(attr *dto.Attribute) (*pages.AttributesPage, error) {
	if err := attr.Validate(); err != nil {
		return nil, fmt.Errorf("invalid attribute: %w", err)
	}
	a.log().Infow("Creating attribute", "name", attr.AttributeName, "type", attr.AttributeType, "dataType", attr.AttributeDataType)
	admin, err := a.navbar().OpenAdministration()
	if err != nil {
		return nil, err
	}
	list, err := admin.OpenAttributes()
	if err != nil {
		return nil, err
	}
	popup, err := list.PressAddAttribute()
	if err != nil {
		return nil, err
	}
	if err := popup.Fill(attr); err != nil {
		return nil, err
	}
	if list, err = popup.PressSave(); err != nil {
		return nil, err
	}
	if _, err := list.FindAttribute(attr.AttributeName); err != nil {
		return nil, testerr.ElementNotCreated("attribute", attr.AttributeName)
	}
	return list, nil
}
