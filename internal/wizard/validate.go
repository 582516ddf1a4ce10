package wizard

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// User-facing validation messages.
const (
	msgLastNameShort  = "Le nom doit contenir au moins 2 caractères"
	msgFirstNameShort = "Le prénom doit contenir au moins 2 caractères"
	msgEmailInvalid   = "Email invalide"
	msgPhoneShort     = "Le numéro de téléphone doit contenir au moins 10 chiffres"
	msgBirthdayEmpty  = "La date de naissance est requise"
	msgPasswordShort  = "Le mot de passe doit contenir au moins 6 caractères"
	msgEmailTaken     = "Cet email est déjà utilisé"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Step1Form carries the raw identity inputs. Password is optional when the
// user arrived through a federated sign-in provider.
type Step1Form struct {
	LastName  string     `validate:"required,min=2"`
	FirstName string     `validate:"required,min=2"`
	Email     string     `validate:"required,email"`
	Phone     string     `validate:"required,min=10"`
	Birthday  *time.Time `validate:"required"`
	Password  string     `validate:"omitempty,min=6"`
	Federated bool       `validate:"-"`
}

// ValidateStep1 checks the identity form and returns per-field messages,
// or nil when the form is valid. Every invalid field is reported at once.
func ValidateStep1(form Step1Form) map[string]string {
	errs := map[string]string{}
	if err := validate.Struct(form); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs["form"] = "Formulaire invalide"
			return errs
		}
		for _, fe := range verrs {
			field, msg := step1Message(fe)
			errs[field] = msg
		}
	}
	if !form.Federated && form.Password == "" {
		errs["password"] = msgPasswordShort
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func step1Message(fe validator.FieldError) (field, msg string) {
	switch fe.StructField() {
	case "LastName":
		return "nom", msgLastNameShort
	case "FirstName":
		return "prenom", msgFirstNameShort
	case "Email":
		return "email", msgEmailInvalid
	case "Phone":
		return "phone", msgPhoneShort
	case "Birthday":
		return "birthday", msgBirthdayEmpty
	case "Password":
		return "password", msgPasswordShort
	}
	return fe.StructField(), "Champ invalide"
}

// planSelection is the derived record validated before a plan is stored.
type planSelection struct {
	PlanID              string  `validate:"required"`
	PlanName            string  `validate:"required"`
	PlanPrice           float64 `validate:"gt=0"`
	StripePriceID       string  `validate:"required"`
	BillingPeriodMonths int     `validate:"gt=0"`
}

func validPlanSelection(sel planSelection) bool {
	return validate.Struct(sel) == nil
}
