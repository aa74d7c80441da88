package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrFamilyNotFound = errors.New("family not found")
	ErrChildNotFound  = errors.New("child not found")

	// Room errors
	ErrRoomFull     = errors.New("room is full")
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomClosed   = errors.New("room is closed")

	// Catalog errors
	ErrUpgradeNotFound  = errors.New("upgrade not found")
	ErrDuplicateUpgrade = errors.New("duplicate upgrade id in catalog")
)
