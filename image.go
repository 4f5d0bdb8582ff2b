package vtcore

import (
	"crypto/sha256"
	"sort"
	"sync"
	"time"
)

// ImageData is a decoded, always-RGBA image stored by the terminal's
// graphics subsystems (Sixel and Kitty). Storage is deduplicated by
// content hash, since a shell prompt or TUI redrawing the same icon
// repeatedly should not re-budget memory for it each time.
type ImageData struct {
	ID         uint32
	Width      uint32
	Height     uint32
	Data       []byte // RGBA, 4 bytes/pixel
	Hash       [32]byte
	AccessedAt time.Time
}

// ImagePlacement is one visible instance of a stored ImageData: where
// it sits on the grid, what region of the source image it shows, and
// how it layers against the text cells it covers.
type ImagePlacement struct {
	ID      uint32
	ImageID uint32

	Row, Col   int
	Cols, Rows int

	SrcX, SrcY uint32
	SrcW, SrcH uint32

	ZIndex int32

	OffsetX, OffsetY uint32 // sub-cell pixel offset
}

// CellImage is the lightweight per-Cell reference to a placement: just
// enough to look up the backing ImageData and the cell's texture
// coordinates within it, so Cell itself stays small.
type CellImage struct {
	PlacementID uint32
	ImageID     uint32

	U0, V0 float32 // top-left, normalized 0..1
	U1, V1 float32 // bottom-right, normalized 0..1

	ZIndex int32
}

// ImageManager owns the terminal's graphics storage: decoded image
// bytes keyed by ID, the placements referencing them, and a memory
// budget that evicts unreferenced images least-recently-accessed
// first. It holds no protocol-specific state — chunked-transfer
// reassembly for Kitty graphics lives on Terminal's apcState instead,
// since that is a transport concern, not a storage one.
type ImageManager struct {
	mu sync.RWMutex

	images     map[uint32]*ImageData
	placements map[uint32]*ImagePlacement
	hashToID   map[[32]byte]uint32

	nextImageID     uint32
	nextPlacementID uint32

	maxMemory  int64
	usedMemory int64
}

const defaultImageMemoryBudget = 320 * 1024 * 1024

// NewImageManager creates an empty ImageManager with the default
// memory budget.
func NewImageManager() *ImageManager {
	return &ImageManager{
		images:     make(map[uint32]*ImageData),
		placements: make(map[uint32]*ImagePlacement),
		hashToID:   make(map[[32]byte]uint32),
		maxMemory:  defaultImageMemoryBudget,
	}
}

// Store adds image data and returns its ID, reusing the existing ID
// for a byte-identical image already held.
func (m *ImageManager) Store(width, height uint32, data []byte) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := sha256.Sum256(data)
	if id, ok := m.hashToID[hash]; ok {
		if img, ok := m.images[id]; ok {
			img.AccessedAt = time.Now()
			return id
		}
	}

	m.nextImageID++
	return m.storeLocked(m.nextImageID, width, height, data, hash)
}

// StoreWithID adds image data under a caller-chosen ID, overwriting
// any image already stored there. Kitty graphics clients assign their
// own IDs rather than letting the terminal allocate them.
func (m *ImageManager) StoreWithID(id, width, height uint32, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.images[id]; ok {
		m.usedMemory -= int64(len(old.Data))
		delete(m.hashToID, old.Hash)
	}
	if id >= m.nextImageID {
		m.nextImageID = id + 1
	}
	m.storeLocked(id, width, height, data, sha256.Sum256(data))
}

func (m *ImageManager) storeLocked(id, width, height uint32, data []byte, hash [32]byte) uint32 {
	m.images[id] = &ImageData{
		ID:         id,
		Width:      width,
		Height:     height,
		Data:       data,
		Hash:       hash,
		AccessedAt: time.Now(),
	}
	m.hashToID[hash] = id
	m.usedMemory += int64(len(data))
	if m.usedMemory > m.maxMemory {
		m.pruneLocked()
	}
	return id
}

// Image returns the stored image for id, touching its access time for
// LRU purposes, or nil if no such image exists.
func (m *ImageManager) Image(id uint32) *ImageData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[id]
	if !ok {
		return nil
	}
	img.AccessedAt = time.Now()
	return img
}

// Place records a new placement, assigning it an ID, and returns that
// ID.
func (m *ImageManager) Place(p *ImagePlacement) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPlacementID++
	p.ID = m.nextPlacementID
	m.placements[p.ID] = p
	return p.ID
}

// Placements returns every active placement, in no particular order.
func (m *ImageManager) Placements() []*ImagePlacement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ImagePlacement, 0, len(m.placements))
	for _, p := range m.placements {
		out = append(out, p)
	}
	return out
}

func (m *ImageManager) RemovePlacement(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.placements, id)
}

func (m *ImageManager) RemovePlacementsForImage(imageID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filterPlacementsLocked(func(p *ImagePlacement) bool { return p.ImageID == imageID })
}

// DeleteImage drops an image's stored bytes along with every placement
// that referenced it.
func (m *ImageManager) DeleteImage(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if img, ok := m.images[id]; ok {
		m.usedMemory -= int64(len(img.Data))
		delete(m.hashToID, img.Hash)
		delete(m.images, id)
	}
	m.filterPlacementsLocked(func(p *ImagePlacement) bool { return p.ImageID == id })
}

// Clear drops all images and placements, as on a full terminal reset.
func (m *ImageManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = make(map[uint32]*ImageData)
	m.placements = make(map[uint32]*ImagePlacement)
	m.hashToID = make(map[[32]byte]uint32)
	m.usedMemory = 0
}

// DeletePlacementsByPosition removes placements covering a given cell.
func (m *ImageManager) DeletePlacementsByPosition(row, col int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filterPlacementsLocked(func(p *ImagePlacement) bool {
		return row >= p.Row && row < p.Row+p.Rows && col >= p.Col && col < p.Col+p.Cols
	})
}

func (m *ImageManager) DeletePlacementsByZIndex(z int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filterPlacementsLocked(func(p *ImagePlacement) bool { return p.ZIndex == z })
}

func (m *ImageManager) DeletePlacementsInRow(row int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filterPlacementsLocked(func(p *ImagePlacement) bool { return row >= p.Row && row < p.Row+p.Rows })
}

func (m *ImageManager) DeletePlacementsInColumn(col int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filterPlacementsLocked(func(p *ImagePlacement) bool { return col >= p.Col && col < p.Col+p.Cols })
}

// filterPlacementsLocked deletes every placement matching drop. Must
// be called with the lock held.
func (m *ImageManager) filterPlacementsLocked(drop func(*ImagePlacement) bool) {
	for id, p := range m.placements {
		if drop(p) {
			delete(m.placements, id)
		}
	}
}

// pruneLocked evicts images with no live placement, oldest access
// first, until usage is back under budget. Must be called with the
// lock held.
func (m *ImageManager) pruneLocked() {
	referenced := make(map[uint32]bool, len(m.placements))
	for _, p := range m.placements {
		referenced[p.ImageID] = true
	}

	var evictable []*ImageData
	for id, img := range m.images {
		if !referenced[id] {
			evictable = append(evictable, img)
		}
	}
	sort.Slice(evictable, func(i, j int) bool {
		return evictable[i].AccessedAt.Before(evictable[j].AccessedAt)
	})

	for _, img := range evictable {
		if m.usedMemory <= m.maxMemory {
			break
		}
		delete(m.hashToID, img.Hash)
		delete(m.images, img.ID)
		m.usedMemory -= int64(len(img.Data))
	}
}
