package discord

import "errors"

var (
	ErrMissingToken      = errors.New("discord: bot token is required")
	ErrMissingAppID      = errors.New("discord: application id is required")
	ErrNotOpen           = errors.New("discord: gateway is not open")
	ErrAlreadyOpen       = errors.New("discord: gateway already open")
	ErrInvalidWebhookURL = errors.New("discord: invalid webhook url")
	ErrWebhookFailed     = errors.New("discord: webhook failed")
	ErrWebhookNotSet     = errors.New("discord: webhook url not configured")
)
