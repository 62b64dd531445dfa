// Package batch packs response cards into delivery chunks that respect the
// transport's per-message size ceiling. Packing is greedy and order
// preserving; every input card appears in exactly one chunk.
package batch

// DefaultMaxSize leaves headroom under Discord's 6000-character embed total
// for container text the cards themselves don't carry.
const DefaultMaxSize = 5500

// Field is a labeled value rendered inside a card.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Card is one renderable unit. It maps onto a single embed.
type Card struct {
	Title  string
	Body   string
	Footer string
	Author string
	Fields []Field
	Color  int
}

// Size is the card's contribution toward a chunk's budget: the sum of the
// lengths of every text part.
func (c Card) Size() int {
	n := len(c.Title) + len(c.Body) + len(c.Footer) + len(c.Author)
	for _, f := range c.Fields {
		n += len(f.Name) + len(f.Value)
	}
	return n
}

// Chunk is one deliverable message worth of cards.
type Chunk struct {
	Cards []Card
	// Last marks the final chunk; interactive components attach here only,
	// so the user acts on the complete output.
	Last bool
}

// Split packs cards into chunks whose combined Size stays at or below
// maxSize. A card is never split across chunks; a card that alone exceeds
// maxSize still ships, as the sole card of its own chunk. Empty input yields
// no chunks. maxSize values below 1 fall back to DefaultMaxSize.
func Split(cards []Card, maxSize int) []Chunk {
	if len(cards) == 0 {
		return nil
	}
	if maxSize < 1 {
		maxSize = DefaultMaxSize
	}

	var chunks []Chunk
	var current []Card
	currentSize := 0
	for _, card := range cards {
		size := card.Size()
		if len(current) > 0 && currentSize+size > maxSize {
			chunks = append(chunks, Chunk{Cards: current})
			current = nil
			currentSize = 0
		}
		current = append(current, card)
		currentSize += size
	}
	chunks = append(chunks, Chunk{Cards: current})
	chunks[len(chunks)-1].Last = true
	return chunks
}
