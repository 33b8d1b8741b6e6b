package resolve

// nicknames maps a lowercase short first name to the canonical first name
var nicknames = map[string]string{
	"jess":   "jessica",
	"jen":    "jennifer",
	"mike":   "michael",
	"chris":  "christina",
	"liz":    "elizabeth",
	"beth":   "elizabeth",
	"bob":    "robert",
	"bill":   "william",
	"sam":    "samantha",
	"dan":    "daniel",
	"nick":   "nicholas",
	"nicki":  "nicole",
	"nikki":  "nicole",
	"hanna":  "hannah",
	"stacy":  "stacey",
	"sherri": "sheri",
	"cathy":  "catherine",
	"kathy":  "katherine",
	"kami":   "kameron",
	"becky":  "rebecca",
	"tony":   "anthony",
}

// expandNickname returns the canonical first name and whether the table
// knew the input
func expandNickname(first string) (string, bool) {
	full, ok := nicknames[first]
	if !ok || full == first {
		return first, false
	}
	return full, true
}
