// Tribe names: optional prefix, a root fused with a suffix, and up to two
// flavour elements drawn from weighted categories.
package names

import (
	"strings"
)

// Chance that a tribe name opens with a prefix.
const tribePrefixChance = 0.4

// Maximum words in a tribe name.
const tribeNameMaxWords = 3

// TribeName generates a tribe name such as "Wilkosławianie znad Warty".
func (p *Provider) TribeName() string {
	var words []string

	if p.rng.Float64() < tribePrefixChance {
		prefix := tribePrefixes[p.rng.Intn(len(tribePrefixes))]
		if !strings.HasSuffix(prefix, "o") && !strings.HasSuffix(prefix, "i") {
			prefix += "o"
		}
		words = append(words, prefix)
	}

	root := tribeRoots[p.rng.Intn(len(tribeRoots))]
	suffix := tribeSuffixes[p.rng.Intn(len(tribeSuffixes))]
	words = append(words, joinRoot(root, suffix))

	available := make([]string, len(tribeCategoryOrder))
	copy(available, tribeCategoryOrder)

	var extras []string
	for i := 0; i < 2 && len(available) > 0; i++ {
		idx := p.rng.Intn(len(available))
		category := available[idx]
		if p.rng.Float64() < tribeCategoryWeights[category] {
			pool := tribeElements[category]
			element := pool[p.rng.Intn(len(pool))]
			if compatible(element, extras) {
				extras = append(extras, element)
			}
		}
		available = append(available[:idx], available[idx+1:]...)
	}

	words = append(words, extras...)
	if len(words) > tribeNameMaxWords {
		words = words[:tribeNameMaxWords]
	}
	return strings.Join(words, " ")
}

// joinRoot adapts a root's ending before attaching a suffix.
func joinRoot(root, suffix string) string {
	if special, ok := rootSpecialCases[root]; ok {
		return special + suffix
	}
	r := []rune(root)
	if len(r) > 1 && strings.ContainsRune("aąeęioóuy", r[len(r)-1]) {
		r = r[:len(r)-1]
	}
	if strings.ContainsRune("wrnmłśćźżkg", r[len(r)-1]) {
		r = append(r, 'o')
	}
	return string(r) + suffix
}

// compatible rejects an element already chosen or sharing a final word with one.
func compatible(element string, chosen []string) bool {
	for _, c := range chosen {
		if c == element {
			return false
		}
		fields := strings.Fields(c)
		if len(fields) > 0 && strings.Contains(element, fields[len(fields)-1]) {
			return false
		}
	}
	return true
}

var rootSpecialCases = map[string]string{
	"woj":   "wojo",
	"mir":   "miro",
	"sław":  "sławo",
	"gród":  "grodo",
	"miecz": "mieczo",
	"świt":  "świto",
	"mrok":  "mroczo",
	"grom":  "gromo",
	"dąb":   "dębo",
	"wilk":  "wilko",
}

var tribePrefixes = []string{"Stary", "Wielki", "Dziki", "Biały", "Czarny", "Górny", "Leśny", "Wolny"}

var tribeRoots = []string{
	"woj", "mir", "sław", "gród", "miecz", "świt", "mrok", "grom", "dąb", "wilk",
	"bor", "las", "kamień", "ogień", "rzeka", "sokół", "tur", "żubr",
}

var tribeSuffixes = []string{"wianie", "sławianie", "goszczanie", "mierzanie", "wici", "nianie", "dzianie"}

var tribeCategoryOrder = []string{
	"lands", "epithets", "titles", "elements", "virtues", "beasts", "shrines", "omens",
}

var tribeCategoryWeights = map[string]float64{
	"lands":    0.4,
	"epithets": 0.3,
	"titles":   0.2,
	"elements": 0.2,
	"virtues":  0.2,
	"beasts":   0.25,
	"shrines":  0.15,
	"omens":    0.15,
}

var tribeElements = map[string][]string{
	"lands":    {"znad Warty", "znad Wisły", "z Puszczy", "z Gór", "z Bagien", "znad Odry"},
	"epithets": {"Nieugięci", "Dzicy", "Wolni", "Wierni", "Srodzy"},
	"titles":   {"Kniaziowie", "Wojowie", "Włodarze", "Żercy"},
	"elements": {"Ognia", "Wody", "Wiatru", "Kamienia"},
	"virtues":  {"Prawi", "Mężni", "Mądrzy", "Hardzi"},
	"beasts":   {"Wilka", "Niedźwiedzia", "Sokoła", "Tura", "Rysia"},
	"shrines":  {"spod Świętej Góry", "od Świętego Gaju", "od Kamiennego Kręgu"},
	"omens":    {"Gromu", "Zaćmienia", "Komety", "Zorzy"},
}
