package features

// romanNumerals lists the floor numerals in order; index+1 is the value.
var romanNumerals = [...]string{
	"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X",
	"XI", "XII", "XIII", "XIV", "XV", "XVI", "XVII", "XVIII", "XIX", "XX",
	"XXI", "XXII", "XXIII", "XXIV", "XXV",
}

var romanValues = func() map[string]int {
	m := make(map[string]int, len(romanNumerals))
	for i, r := range romanNumerals {
		m[r] = i + 1
	}
	return m
}()

// MaxRomanFloor is the highest floor the numeral table can express.
const MaxRomanFloor = len(romanNumerals)

// RomanValue returns the integer for an upper-case numeral in I..XXV.
func RomanValue(numeral string) (int, bool) {
	v, ok := romanValues[numeral]
	return v, ok
}

// RomanNumeral returns the numeral for n in 1..MaxRomanFloor.
func RomanNumeral(n int) (string, bool) {
	if n < 1 || n > MaxRomanFloor {
		return "", false
	}
	return romanNumerals[n-1], true
}
