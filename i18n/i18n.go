// Package i18n translates user-facing messages between French and English.
// French is the default language.
package i18n

import "strings"

const defaultLang = "fr"

// catalog maps a language to code -> message. Failure messages use their
// English text as the code, so the en table only lists short codes.
var catalog = map[string]map[string]string{
	"en": {
		"required":         "Required",
		"invalid_email":    "Invalid email address",
		"invalid_body":     "Invalid request body",
		"invalid_date":     "Invalid date, expected YYYY-MM-DD",
		"must_be_positive": "Must be positive",
	},
	"fr": {
		"required":         "Requis",
		"invalid_email":    "Adresse e-mail invalide",
		"invalid_body":     "Corps de requête invalide",
		"invalid_date":     "Date invalide, format attendu AAAA-MM-JJ",
		"must_be_positive": "Doit être positif",

		"Validation failed":                              "Échec de la validation",
		"Quotation ID is required":                       "L'identifiant du devis est requis",
		"Invoice ID is required":                         "L'identifiant de la facture est requis",
		"Client ID is required":                          "L'identifiant du client est requis",
		"Due date is required":                           "La date d'échéance est requise",
		"Due date must be in the future":                 "La date d'échéance doit être dans le futur",
		"Invoice number cannot be empty":                 "Le numéro de facture ne peut pas être vide",
		"New status is required":                         "Le nouveau statut est requis",
		"Invalid status value":                           "Valeur de statut invalide",
		"Quotation not found":                            "Devis introuvable",
		"Invoice not found":                              "Facture introuvable",
		"Client not found":                               "Client introuvable",
		"Only accepted quotations can generate invoices": "Seuls les devis acceptés peuvent générer une facture",
		"Quotation is invalid":                           "Le devis est invalide",
		"Invoice already exists for this quotation":      "Une facture existe déjà pour ce devis",
		"Invoice number already exists":                  "Ce numéro de facture existe déjà",
		"Quotation must have at least one line":          "Le devis doit contenir au moins une ligne",
		"Tax rate must be between 0 and 100":             "Le taux de TVA doit être compris entre 0 et 100",
		"User not authenticated":                         "Utilisateur non authentifié",
		"Invoice generated successfully":                 "Facture générée avec succès",
		"Failed to send invoice":                         "Échec de l'envoi de la facture",
		"Unexpected error":                               "Erreur inattendue",
		"Invoice status updated to draft":                "Statut de la facture mis à jour : brouillon",
		"Invoice status updated to sent":                 "Statut de la facture mis à jour : envoyée",
		"Invoice status updated to paid":                 "Statut de la facture mis à jour : payée",
		"Invoice status updated to overdue":              "Statut de la facture mis à jour : en retard",
		"Invoice status updated to cancelled":            "Statut de la facture mis à jour : annulée",
		"Invalid credentials":                            "Identifiants invalides",
		"Email already exists":                           "Cette adresse e-mail est déjà utilisée",
	},
}

// DetectLanguage picks "en" or "fr" from an Accept-Language header.
// Anything that does not start with English falls back to French.
func DetectLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	tag := strings.ToLower(strings.TrimSpace(first))
	if tag == "en" || strings.HasPrefix(tag, "en-") {
		return "en"
	}
	return defaultLang
}

// T returns the message for code in lang, then in French, then code itself.
func T(lang, code string) string {
	if msg, ok := catalog[lang][code]; ok {
		return msg
	}
	if lang != "en" {
		if msg, ok := catalog[defaultLang][code]; ok {
			return msg
		}
	}
	return code
}

// Translate applies T to every code.
func Translate(lang string, codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = T(lang, c)
	}
	return out
}
