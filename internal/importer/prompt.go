package importer

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
)

const (
	PromptYes  = "Yes"
	PromptNo   = "No"
	PromptSkip = "skip"
)

// PromptChooser asks the operator on the terminal.
type PromptChooser struct {
	logger *zap.Logger
}

func NewPromptChooser(logger *zap.Logger) *PromptChooser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromptChooser{logger: logger}
}

func (c *PromptChooser) Confirm(required, suggested string) (bool, error) {
	c.logger.Info("suggested column", zap.String("required", required), zap.String("suggested", suggested))

	prompt := promptui.Select{
		Label: fmt.Sprintf("Use %q for %q?", suggested, required),
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		return false, err
	}
	return answer == PromptYes, nil
}

func (c *PromptChooser) Choose(required string, headers []string) (string, error) {
	c.logger.Warn("column not found", zap.String("required", required), zap.Strings("available", headers))

	prompt := promptui.Select{
		Label: fmt.Sprintf("Choose the column to use for %q", required),
		Items: append(append([]string{}, headers...), PromptSkip),
	}

	_, answer, err := prompt.Run()
	if err != nil {
		return "", err
	}
	if answer == PromptSkip {
		return "", nil
	}
	return answer, nil
}

// AutoChooser accepts every suggestion and never chooses, for non-interactive runs.
type AutoChooser struct{}

func (AutoChooser) Confirm(string, string) (bool, error) { return true, nil }

func (AutoChooser) Choose(required string, _ []string) (string, error) {
	return "", errors.New("interactive column mapping disabled")
}
