package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// Battle service specific errors
var (
	ErrBattleNotFound      = errors.New("battle not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already in battle")
	ErrBattleFull          = errors.New("battle is full")
	ErrInvalidTransition   = errors.New("invalid battle state transition")
	ErrNotEnoughPlayers    = errors.New("battle has no participants")
	ErrInvalidBox          = errors.New("unknown box index")
)

// User / wallet service specific errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Payment service specific errors
var (
	ErrUnknownCoinPack = errors.New("unknown coin pack")
)
