package game

// Square identifies one cell of the grid, e.g. "C4".
type Square string

// Ship is an ordered run of squares as submitted by the client. Placement
// legality is the client's problem; the server only resolves shots against it.
type Ship struct {
	Name    string   `json:"name"`
	Squares []Square `json:"squares"`
}

// Outcome classifies a resolved shot against a board.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	OutcomeHit
	OutcomeSunk    // the shot sank a ship, others remain
	OutcomeAllSunk // the shot sank the last ship
)

// ShotResult carries the outcome and, when a ship went down, which one.
type ShotResult struct {
	Outcome Outcome
	Ship    *Ship
}

// Board tracks one player's ship layout and every shot taken against it.
// A Board is owned by exactly one match and is never shared; the owning
// match's lock covers all access.
type Board struct {
	ships  []Ship
	hits   map[Square]struct{}
	misses map[Square]struct{}
}

func NewBoard(ships []Ship) *Board {
	b := &Board{}
	b.Reset(ships)
	return b
}

// Reset replaces the layout and clears all recorded hits and misses.
func (b *Board) Reset(ships []Ship) {
	b.ships = ships
	b.hits = make(map[Square]struct{})
	b.misses = make(map[Square]struct{})
}

// ApplyShot records the shot and reports what it did. Hits and misses are
// disjoint by construction: occupancy alone decides which set the square
// joins, and it joins exactly one.
func (b *Board) ApplyShot(sq Square) ShotResult {
	ship := b.shipAt(sq)
	if ship == nil {
		b.misses[sq] = struct{}{}
		return ShotResult{Outcome: OutcomeMiss}
	}

	b.hits[sq] = struct{}{}

	if !b.isSunk(ship) {
		return ShotResult{Outcome: OutcomeHit}
	}
	if b.AllSunk() {
		return ShotResult{Outcome: OutcomeAllSunk, Ship: ship}
	}
	return ShotResult{Outcome: OutcomeSunk, Ship: ship}
}

// AllSunk reports whether every ship on the board has been fully hit.
// A board with no ships is never considered sunk.
func (b *Board) AllSunk() bool {
	if len(b.ships) == 0 {
		return false
	}
	for i := range b.ships {
		if !b.isSunk(&b.ships[i]) {
			return false
		}
	}
	return true
}

// Snapshot returns copies of the hit and miss sets for board queries.
func (b *Board) Snapshot() (hits, misses []Square) {
	hits = make([]Square, 0, len(b.hits))
	for sq := range b.hits {
		hits = append(hits, sq)
	}
	misses = make([]Square, 0, len(b.misses))
	for sq := range b.misses {
		misses = append(misses, sq)
	}
	return hits, misses
}

func (b *Board) shipAt(sq Square) *Ship {
	for i := range b.ships {
		for _, s := range b.ships[i].Squares {
			if s == sq {
				return &b.ships[i]
			}
		}
	}
	return nil
}

func (b *Board) isSunk(ship *Ship) bool {
	for _, s := range ship.Squares {
		if _, ok := b.hits[s]; !ok {
			return false
		}
	}
	return true
}
