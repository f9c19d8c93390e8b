// Package texts provides the prompts typed in practice and timed test sessions.
package texts

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

// Builtin returns the bundled prompts.
func Builtin() []string {
	out := make([]string, len(builtin))
	copy(out, builtin)
	return out
}

// LoadFile reads one prompt per line from path. Blank lines are skipped.
func LoadFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only prompt file.
			_ = cerr
		}
	}()

	var prompts []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line == "" {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompt file %s is empty", path)
	}
	return prompts, nil
}

// Picker selects prompts at random without repeating the previous one.
type Picker struct {
	rnd     *rand.Rand
	prompts []string
	last    int
}

// NewPicker returns a Picker over prompts seeded with the current time.
// It panics if prompts is empty.
func NewPicker(prompts []string) *Picker {
	return NewSeededPicker(prompts, time.Now().UnixNano())
}

// NewSeededPicker returns a deterministic Picker.
func NewSeededPicker(prompts []string, seed int64) *Picker {
	if len(prompts) == 0 {
		panic("texts: no prompts")
	}
	return &Picker{rnd: rand.New(rand.NewSource(seed)), prompts: prompts, last: -1}
}

// Next returns a prompt different from the previous one when more than one exists.
func (p *Picker) Next() string {
	idx := p.rnd.Intn(len(p.prompts))
	for len(p.prompts) > 1 && idx == p.last {
		idx = p.rnd.Intn(len(p.prompts))
	}
	p.last = idx
	return p.prompts[idx]
}

// Join concatenates prompts until the result has at least minRunes runes.
// Timed tests use it so the text outlasts the countdown.
func (p *Picker) Join(minRunes int) string {
	var b strings.Builder
	count := 0
	for count < minRunes || b.Len() == 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
			count++
		}
		next := p.Next()
		b.WriteString(next)
		count += len([]rune(next))
	}
	return b.String()
}

var builtin = []string{
	"The quick brown fox jumps over the lazy dog. Programming is the process of creating a set of instructions that tell a computer how to perform a task. Typing fast and accurately is an essential skill for modern jobs.",
	"JavaScript is a high-level, often just-in-time compiled language that conforms to the ECMAScript standard. It has dynamic typing, prototype-based object-orientation, and first-class functions.",
	"React makes it painless to create interactive UIs. Design simple views for each state in your application, and React will efficiently update and render just the right components when your data changes.",
	"A journey of a thousand miles begins with a single step. Success is not final, failure is not fatal: it is the courage to continue that counts. Believe you can and you're halfway there.",
	"Water is the most common liquid on Earth. It covers about 71% of the Earth's surface. Safe drinking water is essential to humans and other lifeforms even though it provides no calories or organic nutrients.",
	"The Milky Way is the galaxy that includes our Solar System. The name describes the galaxy's appearance from Earth: a hazy band of light seen in the night sky formed from stars that cannot be individually distinguished by the naked eye.",
	"TypeScript is a strongly typed programming language that builds on JavaScript, giving you better tooling at any scale. It adds static type definitions to JavaScript, allowing developers to catch errors early.",
	"In computer science, a data structure is a data organization, management, and storage format that enables efficient access and modification. More precisely, a data structure is a collection of data values.",
	"Photography is the art, application and practice of creating durable images by recording light, either electronically by means of an image sensor, or chemically by means of a light-sensitive material.",
	"Artificial intelligence is intelligence demonstrated by machines, as opposed to the natural intelligence displayed by animals including humans. AI research has been defined as the field of study of intelligent agents.",
}
