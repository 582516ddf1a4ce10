package identity

import "github.com/clem-pxp/elevate-auth/internal/faults"

// Platform error codes, as returned by the identity platform's REST API
// and as surfaced by its client SDKs.
const (
	codeEmailExists     = "EMAIL_EXISTS"
	codeWeakPassword    = "WEAK_PASSWORD"
	codeInvalidEmail    = "INVALID_EMAIL"
	codePopupClosed     = "auth/popup-closed-by-user"
	codeAccountExists   = "auth/account-exists-with-different-credential"
	codeEmailInUseAlias = "auth/email-already-in-use"
	codeWeakPwAlias     = "auth/weak-password"
	codeInvalidEmAlias  = "auth/invalid-email"
)

// platformFaults maps every known platform code to the internal taxonomy
// and a user-presentable message. Codes outside this table fall through to
// a generic external-platform fault.
var platformFaults = map[string]*faults.Fault{
	codeEmailExists:     faults.New(faults.KindDuplicate, "Cet email est déjà utilisé"),
	codeEmailInUseAlias: faults.New(faults.KindDuplicate, "Cet email est déjà utilisé"),
	codeWeakPassword:    faults.New(faults.KindExternalPlatform, "Le mot de passe est trop faible"),
	codeWeakPwAlias:     faults.New(faults.KindExternalPlatform, "Le mot de passe est trop faible"),
	codeInvalidEmail:    faults.New(faults.KindExternalPlatform, "Email invalide"),
	codeInvalidEmAlias:  faults.New(faults.KindExternalPlatform, "Email invalide"),
	codePopupClosed:     faults.New(faults.KindExternalPlatform, "Connexion annulée"),
	codeAccountExists:   faults.New(faults.KindDuplicate, "Un compte existe déjà avec cet email"),
}

// mapPlatformCode converts a platform error code into a taxonomy fault.
func mapPlatformCode(code string, underlying error) error {
	if f, ok := platformFaults[code]; ok {
		return faults.Wrap(f.Kind, f.Message, underlying)
	}
	return faults.Wrap(faults.KindExternalPlatform, "Une erreur est survenue", underlying)
}
