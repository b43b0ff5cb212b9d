package repository

import (
	"mcpadmin/dal"
	"mcpadmin/models"
	"mcpadmin/utils/logger"
)

type Repository struct {
	Tokens      *TokenStore
	Preferences *PreferenceRepository
	Cookies     *CookieJar
}

func NewRepository(store dal.KeyValueStore, cfg *models.Config, log logger.Logger) (*Repository, error) {
	jar, err := NewCookieJar(cfg.APIURL, store, log)
	if err != nil {
		return nil, err
	}
	return &Repository{
		Tokens:      NewTokenStore(),
		Preferences: NewPreferenceRepository(store, log),
		Cookies:     jar,
	}, nil
}
