package ui

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/huh"
)

// AdminInput is the account created by "admin create"
type AdminInput struct {
	Username string
	Email    string
	Password string
}

// Missing reports whether any field still has to be asked for
func (in AdminInput) Missing() bool {
	return in.Username == "" || in.Email == "" || in.Password == ""
}

// ValidateAdmin checks the fields of a new admin account
func ValidateAdmin(in AdminInput) error {
	if err := validateUsername(in.Username); err != nil {
		return err
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	return validatePassword(in.Password)
}

// RunAdminForm asks for the fields not given as flags
func RunAdminForm(in AdminInput) (AdminInput, error) {
	var fields []huh.Field

	if in.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Description("3-50 letters, digits, dots, dashes or underscores").
			Placeholder("admin").
			Value(&in.Username).
			Validate(validateUsername))
	}

	if in.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("admin@example.com").
			Value(&in.Email).
			Validate(validateEmail))
	}

	if in.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			Description("At least 8 characters").
			EchoMode(huh.EchoModePassword).
			Value(&in.Password).
			Validate(validatePassword))
	}

	if len(fields) == 0 {
		return in, nil
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin())
	if err := form.Run(); err != nil {
		return AdminInput{}, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in, nil
}

// PrintSummary prints the account about to be created
func PrintSummary(in AdminInput) {
	fmt.Println(titleStyle.Render("Admin account"))
	fmt.Printf("  Username: %s\n", in.Username)
	fmt.Printf("  Email:    %s\n", in.Email)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render(msg))
}

// PrintHint prints a secondary line
func PrintHint(msg string) {
	fmt.Println(subtleStyle.Render(msg))
}

// PrintError prints an error message
func PrintError(msg string) {
	fmt.Println(errorStyle.Render("Error: " + msg))
}

func validateUsername(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("username is required")
	}
	if len(s) < 3 || len(s) > 50 {
		return fmt.Errorf("username must be 3-50 characters")
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '_' || r == '-') {
			return fmt.Errorf("username may only contain letters, digits, dots, dashes or underscores")
		}
	}
	return nil
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if addr, err := mail.ParseAddress(s); err != nil || addr.Address != s {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

func validatePassword(s string) error {
	if len(s) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
