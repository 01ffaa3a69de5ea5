package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

//go:embed lexicon.txt
var defaultLexicon string

// Lexicon maps lower-case words and phrases to valences in [-4, 4].
type Lexicon map[string]float64

// DefaultLexicon returns a fresh copy of the built-in lexicon.
func DefaultLexicon() Lexicon {
	lex, err := ParseLexicon(strings.NewReader(defaultLexicon))
	if err != nil {
		panic("sentiment: built-in lexicon: " + err.Error())
	}
	return lex
}

// ParseLexicon reads "term<TAB>valence" lines. Blank lines and lines starting
// with '#' are skipped. Terms may contain spaces.
func ParseLexicon(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		i := strings.LastIndexAny(text, "\t")
		if i < 0 {
			return nil, fmt.Errorf("line %d: want term<TAB>valence", line)
		}
		term := strings.ToLower(strings.Join(strings.Fields(text[:i]), " "))
		v, err := strconv.ParseFloat(strings.TrimSpace(text[i+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if math.IsNaN(v) || v < -4 || v > 4 {
			return nil, fmt.Errorf("line %d: valence %v out of range [-4,4]", line, v)
		}
		lex[term] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lex, nil
}

// Merge copies entries from other into l, overriding existing terms.
func (l Lexicon) Merge(other Lexicon) {
	for k, v := range other {
		l[k] = v
	}
}

// maxPhraseLen returns the longest term length in words.
func (l Lexicon) maxPhraseLen() int {
	n := 1
	for k := range l {
		if c := strings.Count(k, " ") + 1; c > n {
			n = c
		}
	}
	return n
}

// Modifier words. Values follow the usual valence-aware conventions.
const (
	boosterIncr   = 0.293
	boosterDecr   = -0.293
	capsIncr      = 0.733
	negationScale = -0.74
	exclaimIncr   = 0.292
	questionIncr  = 0.18
	normAlpha     = 15.0
)

var boosters = map[string]float64{
	"absolutely": boosterIncr, "amazingly": boosterIncr, "completely": boosterIncr,
	"considerably": boosterIncr, "deeply": boosterIncr, "enormously": boosterIncr,
	"entirely": boosterIncr, "especially": boosterIncr, "exceptionally": boosterIncr,
	"extremely": boosterIncr, "greatly": boosterIncr, "highly": boosterIncr,
	"hugely": boosterIncr, "incredibly": boosterIncr, "majorly": boosterIncr,
	"more": boosterIncr, "most": boosterIncr, "particularly": boosterIncr,
	"really": boosterIncr, "remarkably": boosterIncr, "significantly": boosterIncr,
	"so": boosterIncr, "substantially": boosterIncr, "sharply": boosterIncr,
	"strongly": boosterIncr, "totally": boosterIncr, "tremendously": boosterIncr,
	"very": boosterIncr, "massive": boosterIncr, "massively": boosterIncr,
	"almost": boosterDecr, "barely": boosterDecr, "hardly": boosterDecr,
	"less": boosterDecr, "little": boosterDecr, "marginally": boosterDecr,
	"modestly": boosterDecr, "occasionally": boosterDecr, "partly": boosterDecr,
	"scarcely": boosterDecr, "slightly": boosterDecr, "somewhat": boosterDecr,
}

var negations = map[string]bool{
	"aint": true, "arent": true, "cannot": true, "cant": true, "couldnt": true,
	"darent": true, "didnt": true, "doesnt": true, "dont": true, "hadnt": true,
	"hasnt": true, "havent": true, "isnt": true, "mightnt": true, "mustnt": true,
	"neither": true, "never": true, "no": true, "nobody": true, "none": true,
	"nope": true, "nor": true, "not": true, "nothing": true, "nowhere": true,
	"shant": true, "shouldnt": true, "wasnt": true, "werent": true, "without": true,
	"wont": true, "wouldnt": true, "rarely": true, "seldom": true,
}

func isNegation(word string) bool {
	w := strings.ToLower(word)
	if negations[w] || negations[strings.ReplaceAll(w, "'", "")] {
		return true
	}
	return strings.HasSuffix(w, "n't")
}

// LoadLexiconFile reads a lexicon file in ParseLexicon format.
func LoadLexiconFile(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	lex, err := ParseLexicon(f)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}
