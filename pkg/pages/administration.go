package pages

import (
	"fmt"
	"strings"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selAdminSideMenu     = "#adminSideMenu"
	selAdminWebhooks     = "#adminSideMenu a[href$='/Webhooks']"
	selAdminAttributes   = "#adminSideMenu a[href$='/Attributes']"
	selAdminUsers        = "#adminSideMenu a[href$='/Users']"
	selWebhooksGrid      = "#webhooksGrid"
	selWebhooksSearch    = "#webhooksSearch"
	selAddWebhook        = "#btnAddWebhook"
	selWebhookDeliveries = "a[href$='/WebhookDeliveries']"
	selDeliveriesGrid    = "#webhookDeliveriesGrid"
	selDeliveriesSearch  = "#webhookDeliveriesSearch"

	selWebhookEdit    = ".btn-edit-webhook"
	selWebhookAssign  = ".btn-assign-releases"
	selWebhookDelete  = ".btn-delete-webhook"
	selWebhookName    = "#webhookName"
	selWebhookURL     = "#webhookPayloadUrl"
	selWebhookSecret  = "#webhookSecret"
	selWebhookEnabled = "#webhookEnabled"
	selWebhookEvent   = ".modal.show [data-event=%q] input[type='checkbox']"

	selAssignSearch   = ".modal.show #releaseSearch"
	selAssignRelease  = ".modal.show .available-releases [data-release-name=%q] input[type='checkbox']"
	selAssignSelected = ".modal.show .selected-releases .release-name"

	selAttributesGrid     = "#attributesGrid"
	selAddAttribute       = "#btnAddAttribute"
	selAttributeName      = "#attributeName"
	selAttributeType      = "#attributeType"
	selAttributeDataType  = "#attributeDataType"
	selAttributePickValue = "#picklistValue"
	selAttributePickAdd   = "#btnAddPicklistValue"
	selAttributeRequired  = "#attributeRequired"
	selAttributeSecLead   = "#attributeSecurityLeadOnly"

	selUsersGrid  = "#usersGrid"
	selUserSearch = "#usersSearch"
)

const (
	colWebhookName = 0
	colWebhookURL  = 1
)

// AdministrationPage is the tenant settings area.
type AdministrationPage struct {
	page
}

func (a *AdministrationPage) OpenWebhooks() (*WebhooksPage, error) {
	if err := a.open(selAdminWebhooks, selWebhooksGrid); err != nil {
		return nil, err
	}
	return &WebhooksPage{page: a.page, Grid: newTable(a.page, selWebhooksGrid)}, nil
}

func (a *AdministrationPage) OpenAttributes() (*AttributesPage, error) {
	if err := a.open(selAdminAttributes, selAttributesGrid); err != nil {
		return nil, err
	}
	return &AttributesPage{page: a.page, Grid: newTable(a.page, selAttributesGrid)}, nil
}

func (a *AdministrationPage) OpenUsers() (*UsersPage, error) {
	if err := a.open(selAdminUsers, selUsersGrid); err != nil {
		return nil, err
	}
	return &UsersPage{page: a.page, Grid: newTable(a.page, selUsersGrid)}, nil
}

// WebhooksPage lists the tenant's webhooks.
type WebhooksPage struct {
	page
	Grid Table
}

func (w *WebhooksPage) PressAddWebhook() (*WebhookPopup, error) {
	if err := w.d.Click(selAddWebhook); err != nil {
		return nil, err
	}
	if err := w.d.WaitVisible(selWebhookURL, w.env.Timeout); err != nil {
		return nil, err
	}
	return &WebhookPopup{page: w.page}, nil
}

// FindWebhook filters the grid by payload URL.
func (w *WebhooksPage) FindWebhook(payloadURL string) (*WebhooksPage, error) {
	if err := w.search(selWebhooksSearch, payloadURL); err != nil {
		return nil, err
	}
	return w, nil
}

// GetAllWebhooks returns a cell per listed webhook.
func (w *WebhooksPage) GetAllWebhooks() ([]*WebhookCell, error) {
	n, err := w.Grid.RowsCount()
	if err != nil {
		return nil, err
	}
	cells := make([]*WebhookCell, n)
	for i := range cells {
		cells[i] = &WebhookCell{page: w.page, grid: w.Grid, row: i}
	}
	return cells, nil
}

// OpenDeliveries opens the delivery log.
func (w *WebhooksPage) OpenDeliveries() (*WebhookDeliveriesPage, error) {
	if err := w.open(selWebhookDeliveries, selDeliveriesGrid); err != nil {
		return nil, err
	}
	return &WebhookDeliveriesPage{page: w.page, Grid: newTable(w.page, selDeliveriesGrid)}, nil
}

func (w *WebhooksPage) CloseAlert() (*WebhooksPage, error) {
	return w, w.closeAlert()
}

// WebhookCell is one row of the webhooks grid.
type WebhookCell struct {
	page
	grid Table
	row  int
}

func (c *WebhookCell) Name() (string, error) {
	return c.grid.CellText(c.row, colWebhookName)
}

func (c *WebhookCell) PayloadURL() (string, error) {
	return c.grid.CellText(c.row, colWebhookURL)
}

func (c *WebhookCell) PressEdit() (*WebhookPopup, error) {
	if err := c.grid.clickInRow(c.row, selWebhookEdit); err != nil {
		return nil, err
	}
	if err := c.d.WaitVisible(selWebhookURL, c.env.Timeout); err != nil {
		return nil, err
	}
	return &WebhookPopup{page: c.page}, nil
}

func (c *WebhookCell) PressAssignReleases() (*AssignReleasesPopup, error) {
	if err := c.grid.clickInRow(c.row, selWebhookAssign); err != nil {
		return nil, err
	}
	if err := c.d.WaitVisible(selAssignSearch, c.env.Timeout); err != nil {
		return nil, err
	}
	if err := c.waitLoaded(); err != nil {
		return nil, err
	}
	return &AssignReleasesPopup{page: c.page}, nil
}

func (c *WebhookCell) PressDelete() (*WebhooksPage, error) {
	if err := c.grid.clickInRow(c.row, selWebhookDelete); err != nil {
		return nil, err
	}
	if err := c.confirm(); err != nil {
		return nil, err
	}
	return &WebhooksPage{page: c.page, Grid: c.grid}, nil
}

// WebhookPopup is the add/edit webhook form.
type WebhookPopup struct {
	page
}

// Fill enters hook into the form. Event checkboxes not listed in hook are cleared.
func (p *WebhookPopup) Fill(hook *dto.Webhook) error {
	if err := p.fill(selWebhookName, hook.Name); err != nil {
		return err
	}
	if err := p.d.SetValue(selWebhookURL, hook.PayloadURL); err != nil {
		return err
	}
	if err := p.fill(selWebhookSecret, hook.Secret); err != nil {
		return err
	}
	if err := p.d.SetChecked(selWebhookEnabled, hook.Enabled); err != nil {
		return err
	}
	for _, e := range dto.WebhookEvents {
		if err := p.SetEvent(e, hook.Subscribes(e)); err != nil {
			return err
		}
	}
	return nil
}

func (p *WebhookPopup) SetEvent(e dto.WebhookEvent, on bool) error {
	return p.d.SetChecked(fmt.Sprintf(selWebhookEvent, string(e)), on)
}

func (p *WebhookPopup) ClickSave() (*WebhooksPage, error) {
	if err := p.saveModal(selModalSave); err != nil {
		return nil, err
	}
	return &WebhooksPage{page: p.page, Grid: newTable(p.page, selWebhooksGrid)}, nil
}

// AssignReleasesPopup picks the releases a webhook fires for.
type AssignReleasesPopup struct {
	page
}

func (p *AssignReleasesPopup) AssignRelease(releaseName string) (*AssignReleasesPopup, error) {
	if err := p.search(selAssignSearch, releaseName); err != nil {
		return nil, err
	}
	if err := p.d.SetChecked(fmt.Sprintf(selAssignRelease, releaseName), true); err != nil {
		return nil, err
	}
	return p, nil
}

// PressSave saves the assignment. With expectSuccess the popup must close;
// otherwise the validation message is returned as an UnexpectedConditions error
// and the popup stays open.
func (p *AssignReleasesPopup) PressSave(expectSuccess bool) (*WebhooksPage, error) {
	if expectSuccess {
		if err := p.saveModal(selModalSave); err != nil {
			return nil, err
		}
		return &WebhooksPage{page: p.page, Grid: newTable(p.page, selWebhooksGrid)}, nil
	}
	if err := p.d.Click(selModalSave); err != nil {
		return nil, err
	}
	if err := p.d.WaitVisible(selModalError, p.env.Timeout); err != nil {
		return nil, testerr.UnexpectedConditions("assignment saved although a failure was expected")
	}
	return nil, testerr.UnexpectedConditions("assignment rejected: %s", p.modalError())
}

// SelectedRelease is a release listed as assigned in the popup.
type SelectedRelease struct {
	ReleaseName string
}

func (p *AssignReleasesPopup) GetAllSelectedReleases() ([]SelectedRelease, error) {
	names, err := p.d.Texts(selAssignSelected)
	if err != nil {
		return nil, err
	}
	out := make([]SelectedRelease, 0, len(names))
	for _, n := range names {
		out = append(out, SelectedRelease{ReleaseName: strings.TrimSpace(n)})
	}
	return out, nil
}

func (p *AssignReleasesPopup) Close() error {
	if err := p.d.Click(selModalClose); err != nil {
		return err
	}
	return p.d.WaitNotVisible(selModal, p.env.Timeout)
}

// WebhookDeliveriesPage lists the deliveries the product attempted.
type WebhookDeliveriesPage struct {
	page
	Grid Table
}

func (w *WebhookDeliveriesPage) FindWebhook(payloadURL string) (*WebhookDeliveriesPage, error) {
	if err := w.search(selDeliveriesSearch, payloadURL); err != nil {
		return nil, err
	}
	return w, nil
}

// DeliveriesCount returns the number of listed deliveries.
func (w *WebhookDeliveriesPage) DeliveriesCount() (int, error) {
	return w.Grid.RowsCount()
}

// AttributesPage lists custom attributes.
type AttributesPage struct {
	page
	Grid Table
}

func (a *AttributesPage) PressAddAttribute() (*AttributePopup, error) {
	if err := a.d.Click(selAddAttribute); err != nil {
		return nil, err
	}
	if err := a.d.WaitVisible(selAttributeName, a.env.Timeout); err != nil {
		return nil, err
	}
	return &AttributePopup{page: a.page}, nil
}

// FindAttribute returns the grid row of the attribute called name.
func (a *AttributesPage) FindAttribute(name string) (int, error) {
	return a.Grid.FindRow(0, name)
}

// AttributePopup is the add-attribute form.
type AttributePopup struct {
	page
}

func (p *AttributePopup) Fill(attr *dto.Attribute) error {
	if err := p.d.Type(selAttributeName, attr.AttributeName); err != nil {
		return err
	}
	if err := p.selectIf(selAttributeType, string(attr.AttributeType)); err != nil {
		return err
	}
	if err := p.selectIf(selAttributeDataType, string(attr.AttributeDataType)); err != nil {
		return err
	}
	if attr.AttributeDataType == dto.AttributeDataPicklist {
		for _, v := range attr.PickListValues {
			if err := p.d.Type(selAttributePickValue, v); err != nil {
				return err
			}
			if err := p.d.Click(selAttributePickAdd); err != nil {
				return err
			}
		}
	}
	if err := p.d.SetChecked(selAttributeRequired, attr.Required); err != nil {
		return err
	}
	return p.d.SetChecked(selAttributeSecLead, attr.EditableOnlyBySecurityLead)
}

func (p *AttributePopup) PressSave() (*AttributesPage, error) {
	if err := p.saveModal(selModalSave); err != nil {
		return nil, err
	}
	return &AttributesPage{page: p.page, Grid: newTable(p.page, selAttributesGrid)}, nil
}

// UsersPage lists tenant users.
type UsersPage struct {
	page
	Grid Table
}

// HasUser reports whether userName is listed after searching for it.
func (u *UsersPage) HasUser(userName string) (bool, error) {
	if err := u.search(selUserSearch, userName); err != nil {
		return false, err
	}
	values, err := u.Grid.ColumnTexts(0)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), userName) {
			return true, nil
		}
	}
	return false, nil
}
