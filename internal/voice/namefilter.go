package voice

import (
	"fmt"
	"strings"
	"unicode"
)

// Channel name length bounds. The upper bound is Discord's limit.
const (
	MinChannelNameLength = 2
	MaxChannelNameLength = 100
)

// blockedWords lists terms that violate the platform's terms of service
// when used in channel names: profanity, slurs, sexual content, violence
// and common leetspeak spellings of each. Extend as needed.
var blockedWords = map[string]struct{}{}

func init() {
	words := []string{
		// Common profanity
		"fuck", "fucking", "fucker", "fucked", "fucks", "motherfucker", "motherfucking",
		"shit", "shits", "shitty", "bullshit", "horseshit", "shitting",
		"ass", "asshole", "assholes", "asses", "dumbass", "jackass", "fatass",
		"bitch", "bitches", "bitchy", "bitching",
		"damn", "dammit", "goddamn", "goddammit",
		"hell", "hellhole",
		"crap", "crappy",
		"piss", "pissed", "pissing",
		"dick", "dicks", "dickhead", "dickwad",
		"cock", "cocks", "cocksucker", "cocksucking",
		"cunt", "cunts",
		"pussy", "pussies",
		"bastard", "bastards",
		"whore", "whores", "whorish",
		"slut", "sluts", "slutty",
		"twat", "twats",
		"wanker", "wankers", "wank",
		"bollocks", "bollock",
		"arse", "arsehole",
		"bugger",
		"bloody",
		"prick", "pricks",
		"tit", "tits", "titty", "titties",
		"boob", "boobs", "booby",

		// Slurs and hate speech
		"nigger", "nigga", "niggas", "negro", "negroes", "whigga", "chigga", "whiggers", "niggers",
		"faggot", "fag", "fags", "faggots", "faggy",
		"retard", "retarded", "retards",
		"spic", "spics", "spick",
		"chink", "chinks",
		"kike", "kikes",
		"gook", "gooks",
		"wetback", "wetbacks",
		"beaner", "beaners",
		"cracker", "crackers",
		"honky", "honkey", "honkies",
		"dyke", "dykes",
		"tranny", "trannies",
		"shemale", "shemales",
		"coon", "coons",
		"jap", "japs",
		"raghead", "ragheads",
		"towelhead", "towelheads",
		"camel jockey",
		"paki", "pakis",
		"wigger", "wiggers",
		"zipperhead",
		"slope", "slopes",
		"gypsy", "gypsies",

		// Sexual content
		"porn", "porno", "pornography",
		"xxx",
		"sex", "sexual", "sexy",
		"nude", "nudes", "nudity",
		"naked",
		"horny",
		"cum", "cumming", "cumshot",
		"jizz",
		"sperm",
		"orgasm", "orgasms",
		"erection",
		"boner", "boners",
		"dildo", "dildos",
		"vibrator",
		"blowjob", "blowjobs",
		"handjob", "handjobs",
		"masturbate", "masturbation", "masturbating",
		"anal",
		"anus",
		"vagina", "vaginas", "vaginal",
		"penis", "penises",
		"clitoris", "clit",
		"labia",
		"testicle", "testicles", "testes",
		"scrotum",
		"foreskin",
		"circumcision",
		"ejaculate", "ejaculation",
		"fellatio",
		"cunnilingus",
		"sodomy",
		"incest",
		"pedophile", "pedophilia", "pedo", "paedo",
		"rape", "raping", "rapist", "raped",
		"molest", "molester", "molestation",
		"bestiality",
		"zoophile", "zoophilia",
		"necrophile", "necrophilia",

		// Violence
		"kill", "killing", "killer",
		"murder", "murderer", "murdering",
		"suicide", "suicidal",
		"terrorist", "terrorism",
		"nazi", "nazis", "nazism",
		"hitler",
		"holocaust",
		"genocide",
		"kkk", "klan",
		"jihad", "jihadist",
		"isis",
		"alqaeda", "al-qaeda",

		// Leetspeak spellings
		"f4ck", "fvck", "phuck", "phuk",
		"sh1t", "sh!t", "s#it",
		"b1tch", "b!tch",
		"a$$", "a55",
		"d1ck", "d!ck",
		"c0ck",
		"p0rn",
		"n1gger", "n1gga", "nigg3r", "n!gger",
		"f4g", "f4gg0t",
		"r3tard", "r3t4rd",
	}
	for _, word := range words {
		blockedWords[word] = struct{}{}
	}
}

// separatorStripper removes separators and digit substitutions commonly
// used to sneak a blocked word past the filter ("f_u_c_k", "sh1t").
var separatorStripper = strings.NewReplacer(
	"_", "", "-", "", ".", "", " ", "",
	"0", "", "1", "", "3", "", "4", "", "5", "",
	"@", "", "!", "", "$", "", "#", "",
)

// digitStripper applies the same substitutions to the blocked words so
// leetspeak entries compare against the stripped text.
var digitStripper = strings.NewReplacer(
	"0", "", "1", "", "3", "", "4", "", "5", "",
	"@", "", "!", "", "$", "", "#", "",
)

// containsBlockedWord reports the first blocked word found in the text.
func containsBlockedWord(text string) (string, bool) {
	lowered := strings.ToLower(text)

	// Whole words first, trimming surrounding punctuation.
	for _, word := range strings.Fields(lowered) {
		cleaned := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if _, ok := blockedWords[cleaned]; ok {
			return cleaned, true
		}
	}

	// Then the separator-stripped text and the raw text, catching
	// evasion spellings and compound words. Short entries are skipped to
	// avoid false positives on innocent substrings.
	stripped := separatorStripper.Replace(lowered)

	for word := range blockedWords {
		if len(word) < 4 {
			continue
		}

		if strings.Contains(stripped, digitStripper.Replace(word)) {
			return word, true
		}

		if strings.Contains(lowered, word) {
			return word, true
		}
	}

	return "", false
}

// ValidateChannelName rejects names outside the length bounds or
// containing language that would violate the platform's terms of
// service. Applied to owner renames and to replayed name preferences.
func ValidateChannelName(name string) error {
	if len(strings.TrimSpace(name)) < MinChannelNameLength || len(name) > MaxChannelNameLength {
		return fmt.Errorf("name must be %d-%d characters: %w",
			MinChannelNameLength, MaxChannelNameLength, ErrInvalidName)
	}

	if word, ok := containsBlockedWord(name); ok {
		return fmt.Errorf("name contains %q: %w", word, ErrInappropriateName)
	}

	return nil
}
