package timing

// SubBeatsPerBar is the resolution of the host's sub-beat counter (64ths of a beat, 4/4).
const SubBeatsPerBar = 256

// BarDivision is the first division counted in whole bars. From there on the
// bar number is folded into the hit index so hits longer than a bar are seen.
const BarDivision = 4

// Divisions maps a beat division index to its length in sub-beats, 1/16 to 16 bars.
var Divisions = [...]int64{16, 32, 64, 128, 256, 512, 1024, 2048, 4096}

// Division clamps a division index into range.
func Division(index int64) int {
	if index < 0 {
		return 0
	}
	if index >= int64(len(Divisions)) {
		return len(Divisions) - 1
	}
	return int(index)
}

// Beat is the tempo snapshot a BeatClock observes.
type Beat struct {
	// SubBeat counts 0 to 256 within the bar.
	SubBeat int64
	Bar     int64
	BPM     float64
}

// HitIndex returns the index of the division-long interval b falls in.
func HitIndex(division int, b Beat) int64 {
	d := Division(int64(division))
	count := b.SubBeat
	if d >= BarDivision {
		count += b.Bar * SubBeatsPerBar
	}
	return count / Divisions[d]
}

// BeatClock detects when the beat crosses into a new division interval.
type BeatClock struct {
	division int
	prevHit  int64
	prevBPM  float64
}

// NewBeatClock creates a clock counting the given division.
func NewBeatClock(division int) *BeatClock {
	return &BeatClock{division: Division(int64(division))}
}

// Division returns the counted division index.
func (c *BeatClock) Division() int { return c.division }

// SetDivision switches division and re-arms on b, so the switch itself is not a hit.
func (c *BeatClock) SetDivision(division int, b Beat) {
	c.division = Division(int64(division))
	c.prevHit = HitIndex(c.division, b)
}

// Restart forgets the previous hit and tempo, as when an effect is (re)started.
func (c *BeatClock) Restart(b Beat) {
	c.prevHit = 0
	c.prevBPM = b.BPM
}

// Hit is what one observation found.
type Hit struct {
	Index        int64
	New          bool
	TempoChanged bool
}

// Observe reads the beat for one frame.
func (c *BeatClock) Observe(b Beat) Hit {
	h := Hit{Index: HitIndex(c.division, b)}
	if h.Index != c.prevHit {
		c.prevHit = h.Index
		h.New = true
	}
	if b.BPM != c.prevBPM {
		c.prevBPM = b.BPM
		h.TempoChanged = true
	}
	return h
}
