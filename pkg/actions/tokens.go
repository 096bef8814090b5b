package actions

import (
	"fmt"

	"github.com/fodqa/fod-regression/pkg/dto"
)

type AccessTokens struct {
	*base
}

// CreateToken creates a personal access token for the signed-in user with the
// scopes of pat and stores the revealed secret in pat.Secret.
func (a *AccessTokens) CreateToken(pat *dto.PersonalAccessToken) (string, error) {
	if err := pat.Validate(); err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	a.log().Infow("Creating personal access token", "name", pat.Name, "scopes", pat.Scopes)
	list, err := a.navbar().OpenPersonalAccessTokens()
	if err != nil {
		return "", err
	}
	popup, err := list.PressAddAccessToken()
	if err != nil {
		return "", err
	}
	if _, err := popup.SetName(pat.Name); err != nil {
		return "", err
	}
	for _, scope := range pat.Scopes {
		if _, err := popup.SetAllowedScopesByName(scope, true); err != nil {
			return "", err
		}
	}
	if _, err := popup.PressSave(); err != nil {
		return "", fmt.Errorf("create token %s: %w", pat.Name, err)
	}
	pat.Secret = popup.Secret()
	if _, err := popup.PressClose(); err != nil {
		return "", err
	}
	return pat.Secret, nil
}

// DeleteToken removes the token called name.
func (a *AccessTokens) DeleteToken(name string) error {
	list, err := a.navbar().OpenPersonalAccessTokens()
	if err != nil {
		return err
	}
	return list.DeleteTokenByName(name)
}
