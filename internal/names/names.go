// Package names generates medieval display names and tribe names.
package names

import (
	"fmt"
	"math/rand"

	"github.com/talgya/kindred/internal/people"
)

// ErrUnknownGender is returned when asked to name a gender it has no pool for.
var ErrUnknownGender = people.ErrUnknownGender

// Provider generates names from a seeded source.
type Provider struct {
	rng *rand.Rand
}

// NewProvider creates a name provider drawing from rng.
func NewProvider(rng *rand.Rand) *Provider {
	return &Provider{rng: rng}
}

// Generate returns a first name followed by a descriptive title, e.g.
// "Mieszko Waleczny". Personality and appearance titles take the feminine
// ending for women.
func (p *Provider) Generate(g people.Gender) (string, error) {
	var firsts []string
	switch g {
	case people.Male:
		firsts = maleNames
	case people.Female:
		firsts = femaleNames
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownGender, uint8(g))
	}

	first := firsts[p.rng.Intn(len(firsts))]
	category := descriptorCategories[p.rng.Intn(len(descriptorCategories))]
	pool := descriptors[category]
	title := pool[p.rng.Intn(len(pool))]

	if g == people.Female && (category == catPersonality || category == catAppearance) {
		title = feminine(title)
	}
	return first + " " + title, nil
}

// feminine swaps the final letter of an adjectival title for "a".
func feminine(title string) string {
	r := []rune(title)
	if len(r) == 0 {
		return title
	}
	r[len(r)-1] = 'a'
	return string(r)
}

const (
	catPersonality = "personality"
	catAppearance  = "appearance"
	catOrigin      = "origin"
	catDeeds       = "deeds"
	catNature      = "nature"
)

var descriptorCategories = []string{catPersonality, catAppearance, catOrigin, catDeeds, catNature}

var maleNames = []string{
	"Mieszko", "Bolesław", "Kazimierz", "Władysław", "Zbigniew",
	"Świętopełk", "Przemysław", "Wacław", "Dobiesław", "Jarosław",
	"Sławomir", "Wojciech", "Świętosław", "Mścisław", "Gniewomir",
	"Dobromir", "Mirosław", "Bronisław", "Stanisław", "Bogumił",
	"Bogusław", "Ziemowit", "Racibor", "Siemowit", "Wrocisław",
	"Baldwin", "Roland", "Godfryd", "Wilhelm", "Henryk",
	"Richard", "Robert", "Hugh", "Walter", "Geoffrey",
	"Edmund", "Francis", "Conrad", "Otto", "Frederick",
	"Magnus", "Erik", "Olaf", "Harald", "Gustav",
	"Ludwig", "Karl", "Franz", "Dietrich", "Alaric",
}

var femaleNames = []string{
	"Dobrawa", "Świętosława", "Grzymisława", "Ludmiła", "Bogna",
	"Dobrosława", "Miłosława", "Wojsława", "Bronisława", "Bożena",
	"Sławomira", "Świętochna", "Mirosława", "Krzesława", "Jarosława",
	"Radosława", "Wszebora", "Zbysława", "Więcesława", "Adelaide",
	"Matilda", "Eleanor", "Beatrice", "Agnes", "Constance",
	"Isabella", "Margaret", "Catherine", "Elizabeth", "Blanche",
	"Adela", "Emma", "Sophia", "Hedwig", "Gertrude",
	"Hildegard", "Ingrid", "Astrid", "Helga", "Brunhild",
	"Gudrun", "Isolde", "Mathilde", "Adelheid",
}

var descriptors = map[string][]string{
	catPersonality: {
		"Mądry", "Dzielny", "Prawy", "Dumny", "Szlachetny",
		"Spokojny", "Zuchwały", "Hardy", "Cnotliwy", "Szczodry",
		"Surowy", "Łagodny", "Pobożny", "Groźny", "Okrutny",
		"Sprawiedliwy", "Praworządny", "Dobrotliwy", "Miłosierny", "Waleczny",
	},
	catAppearance: {
		"Wysoki", "Krzywousty", "Rudy", "Piękny", "Czarny",
		"Biały", "Siwy", "Długowłosy", "Brodaty", "Jasny",
		"Blady", "Silny", "Smukły", "Chudy", "Krępy",
		"Jednooki", "Kulawy", "Garbaty", "Łysy", "Bystrooki",
	},
	catOrigin: {
		"z Północy", "z Południa", "ze Wschodu", "z Zachodu", "z Gór",
		"z Doliny", "znad Rzeki", "z Puszczy", "z Borów", "z Nizin",
		"znad Jeziora", "z Wyżyn", "z Pomorza", "ze Śląska", "z Mazowsza",
	},
	catDeeds: {
		"Pogromca Wilków", "Zabójca Niedźwiedzi", "Pogromca Wrogów", "Obrońca Słabych", "Poskromiciel Bestii",
		"Zwycięzca", "Niezwyciężony", "Nieustraszony", "Zdobywca", "Oswobodziciel",
		"Mściciel", "Pogromca Smoków", "Łowca", "Wojownik", "Obrońca Wiary",
	},
	catNature: {
		"Wilk", "Niedźwiedź", "Orzeł", "Sokół", "Tur",
		"Żubr", "Lew", "Ryś", "Żmij", "Jastrząb",
		"Byk", "Dzik", "Jeleń", "Żbik", "Borsuk",
	},
}
