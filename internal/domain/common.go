package domain

// Sentinels used when a webhook payload leaves a field out.
const (
	UnknownValue = "Unknown"
	ZeroDuration = "0"
)

// LanguageArabic is the language code of the guest profile.
const LanguageArabic = "ar"
