// Package contactlink builds call and WhatsApp deep links for donor and
// request contact buttons.
package contactlink

import "strings"

// Prefilled WhatsApp messages.
const (
	// DonorContactMessage is sent by someone who found a donor in search.
	DonorContactMessage = "Hi, I found your profile on BloodLink. I need blood donation help. Can you please assist?"
	// RequestReplyMessage is sent by a visitor replying to an emergency request.
	RequestReplyMessage = "Hi, I saw your emergency blood request on BloodLink. I would like to help!"
	// DonorOfferMessage is sent by a logged-in donor from the dashboard.
	DonorOfferMessage = "Hi, I am a blood donor registered on BloodLink. I can help with your blood request."
)

// CleanPhone keeps only digits and '+'.
func CleanPhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TelURL returns a tel: link, or "" when phone has no digits.
func TelURL(phone string) string {
	p := CleanPhone(phone)
	if strings.Trim(p, "+") == "" {
		return ""
	}
	return "tel:" + p
}

// WhatsAppURL returns a wa.me link with message prefilled. wa.me takes the
// number without '+'.
func WhatsAppURL(phone, message string) string {
	digits := strings.ReplaceAll(CleanPhone(phone), "+", "")
	if digits == "" {
		return ""
	}
	u := "https://wa.me/" + digits
	if message != "" {
		u += "?text=" + EscapeComponent(message)
	}
	return u
}

// EscapeComponent percent-encodes s like a browser's encodeURIComponent:
// letters, digits and -_.!~*'() stay literal, a space becomes %20, and every
// other byte of the UTF-8 encoding becomes %XX.
func EscapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if literal(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func literal(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// Links is the pair of contact URLs rendered next to a phone number.
type Links struct {
	Tel      string `json:"tel,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// For builds both links for phone with the given WhatsApp message.
func For(phone, message string) Links {
	return Links{Tel: TelURL(phone), WhatsApp: WhatsAppURL(phone, message)}
}
