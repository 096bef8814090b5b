package pages

import (
	"fmt"
	"strings"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selTokensGrid   = "#personalAccessTokensGrid"
	selAddToken     = "#btnAddAccessToken"
	selTokenDelete  = ".btn-delete-token"
	selTokenName    = "#accessTokenName"
	selTokenScope   = ".modal.show [data-scope=%q] input[type='checkbox']"
	selTokenSecret  = ".modal.show #accessTokenSecret"
	selTokenExpires = "#accessTokenExpiration"
)

// PersonalAccessTokensPage lists the signed-in user's personal access tokens.
type PersonalAccessTokensPage struct {
	page
	Grid Table
}

func newPersonalAccessTokensPage(p page) *PersonalAccessTokensPage {
	return &PersonalAccessTokensPage{page: p, Grid: newTable(p, selTokensGrid)}
}

func (t *PersonalAccessTokensPage) PressAddAccessToken() (*AccessTokenPopup, error) {
	if err := t.d.Click(selAddToken); err != nil {
		return nil, err
	}
	if err := t.d.WaitVisible(selTokenName, t.env.Timeout); err != nil {
		return nil, err
	}
	return &AccessTokenPopup{page: t.page}, nil
}

func (t *PersonalAccessTokensPage) TokenNames() ([]string, error) {
	return t.Grid.ColumnTexts(0)
}

// DeleteTokenByName deletes the token called name.
func (t *PersonalAccessTokensPage) DeleteTokenByName(name string) error {
	row, err := t.Grid.FindRow(0, name)
	if err != nil {
		return err
	}
	if err := t.Grid.clickInRow(row, selTokenDelete); err != nil {
		return err
	}
	return t.confirm()
}

// AccessTokenPopup creates a token and shows its secret once.
type AccessTokenPopup struct {
	page
	secret string
}

func (p *AccessTokenPopup) SetName(name string) (*AccessTokenPopup, error) {
	return p, p.d.Type(selTokenName, name)
}

// SetExpiration picks an expiration date (yyyy-mm-dd). The product default is kept when empty.
func (p *AccessTokenPopup) SetExpiration(date string) (*AccessTokenPopup, error) {
	return p, p.fill(selTokenExpires, date)
}

func (p *AccessTokenPopup) SetAllowedScopesByName(scope dto.Scope, on bool) (*AccessTokenPopup, error) {
	return p, p.d.SetChecked(fmt.Sprintf(selTokenScope, string(scope)), on)
}

// PressSave creates the token and captures the secret the popup reveals.
func (p *AccessTokenPopup) PressSave() (*AccessTokenPopup, error) {
	if err := p.d.Click(selModalSave); err != nil {
		return nil, err
	}
	if err := p.d.WaitVisible(selTokenSecret, p.env.Timeout); err != nil {
		if msg := p.modalError(); msg != "" {
			return nil, testerr.UnexpectedConditions("token not created: %s", msg)
		}
		return nil, err
	}
	secret, _, err := p.d.Attribute(selTokenSecret, "value")
	if err != nil {
		return nil, err
	}
	p.secret = strings.TrimSpace(secret)
	if p.secret == "" {
		return nil, testerr.ElementNotCreated("personal access token", "secret")
	}
	return p, nil
}

// Secret is the token secret captured by PressSave.
func (p *AccessTokenPopup) Secret() string { return p.secret }

func (p *AccessTokenPopup) PressClose() (*PersonalAccessTokensPage, error) {
	if err := p.d.Click(selModalClose); err != nil {
		return nil, err
	}
	if err := p.d.WaitNotVisible(selModal, p.env.Timeout); err != nil {
		return nil, err
	}
	if err := p.waitLoaded(); err != nil {
		return nil, err
	}
	return newPersonalAccessTokensPage(p.page), nil
}
