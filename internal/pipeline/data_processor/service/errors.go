package service

import "errors"

var (
	ErrNoCategories = errors.New("no categories selected")
)
