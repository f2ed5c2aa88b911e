package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/GarvGoel08/DocOnGo/internal/api"
	"github.com/GarvGoel08/DocOnGo/models"
)

// PromptForAPIKey asks for a Gemini API key without echoing it.
func PromptForAPIKey() (string, error) {
	var key string
	prompt := &survey.Password{
		Message: "Enter your Gemini API key:",
		Help:    "Get one at https://aistudio.google.com/apikey. The key stays on your machine unless you are logged in.",
	}

	err := survey.AskOne(prompt, &key, survey.WithValidator(func(val interface{}) error {
		str, _ := val.(string)
		return api.ValidateKey(str)
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// PromptForLogin collects login credentials.
func PromptForLogin() (models.LoginRequest, error) {
	var in models.LoginRequest

	emailPrompt := &survey.Input{Message: "Email:"}
	if err := survey.AskOne(emailPrompt, &in.Email, survey.WithValidator(validateEmail)); err != nil {
		return models.LoginRequest{}, err
	}

	passwordPrompt := &survey.Password{Message: "Password:"}
	if err := survey.AskOne(passwordPrompt, &in.Password, survey.WithValidator(survey.Required)); err != nil {
		return models.LoginRequest{}, err
	}

	in.Email = strings.TrimSpace(in.Email)
	return in, nil
}

// PromptForRegister collects the details for a new account.
func PromptForRegister() (models.RegisterRequest, error) {
	var in models.RegisterRequest

	namePrompt := &survey.Input{Message: "Name:"}
	if err := survey.AskOne(namePrompt, &in.Name, survey.WithValidator(survey.Required)); err != nil {
		return models.RegisterRequest{}, err
	}

	emailPrompt := &survey.Input{Message: "Email:"}
	if err := survey.AskOne(emailPrompt, &in.Email, survey.WithValidator(validateEmail)); err != nil {
		return models.RegisterRequest{}, err
	}

	passwordPrompt := &survey.Password{Message: "Password (min 6 characters):"}
	if err := survey.AskOne(passwordPrompt, &in.Password, survey.WithValidator(func(val interface{}) error {
		str, _ := val.(string)
		if len(str) < 6 {
			return fmt.Errorf("password must be at least 6 characters")
		}
		return nil
	})); err != nil {
		return models.RegisterRequest{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	return in, nil
}

// PromptForSession lets the user pick a past consultation. Returns the
// chosen session id, or empty if the list was empty.
func PromptForSession(chats []models.ChatSummary) (string, error) {
	if len(chats) == 0 {
		return "", nil
	}

	options := make([]string, len(chats))
	for i, chat := range chats {
		options[i] = FormatChatSummary(chat)
	}

	var selected int
	prompt := &survey.Select{
		Message:  "Select a consultation:",
		Options:  options,
		PageSize: 10,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return chats[selected].SessionID, nil
}

// PromptForDeleteConfirmation double-checks a history deletion.
func PromptForDeleteConfirmation(title string) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Delete %q? This cannot be undone.", title),
		Default: false,
	}
	err := survey.AskOne(prompt, &confirmed)
	return confirmed, err
}

func validateEmail(val interface{}) error {
	str, _ := val.(string)
	str = strings.TrimSpace(str)
	if str == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(str, "@") || !strings.Contains(str, ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
