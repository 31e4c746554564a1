package usecases

import (
	"sync"

	"pdfshrink/internal/domain/entities"
)

// ProgressTracker хранит текущее состояние прогресса для чтения из UI
type ProgressTracker struct {
	mu    sync.RWMutex
	state entities.ProgressState
}

// NewProgressTracker создает трекер с нулевым состоянием
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

// Update сохраняет новое состояние
func (t *ProgressTracker) Update(state entities.ProgressState) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

// Reset сбрасывает состояние в ноль
func (t *ProgressTracker) Reset() {
	t.Update(entities.ProgressState{})
}

// Snapshot возвращает копию текущего состояния
func (t *ProgressTracker) Snapshot() entities.ProgressState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}
