package domain

import "errors"

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrChoiceNotFound   = errors.New("choice not found")
	ErrInvalidChoice    = errors.New("You didn't select a choice.")
	ErrPageNotFound     = errors.New("page not found")
	ErrEmptyText        = errors.New("text is required")
	ErrInternal         = errors.New("internal server error")
)
