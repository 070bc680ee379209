package metrics

import "sync/atomic"

type Collector struct {
	punchesRegistered uint64
	punchesQueued     uint64
	punchesRejected   uint64
	syncPasses        uint64
	syncItemsSynced   uint64
	syncItemsFailed   uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) PunchRegistered() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.punchesRegistered, 1)
}

func (c *Collector) PunchQueued() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.punchesQueued, 1)
}

func (c *Collector) PunchRejected() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.punchesRejected, 1)
}

func (c *Collector) SyncPass(synced, failed int) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.syncPasses, 1)
	atomic.AddUint64(&c.syncItemsSynced, uint64(synced))
	atomic.AddUint64(&c.syncItemsFailed, uint64(failed))
}

func (c *Collector) Snapshot() map[string]any {
	return map[string]any{
		"punchesRegisteredTotal": atomic.LoadUint64(&c.punchesRegistered),
		"punchesQueuedTotal":     atomic.LoadUint64(&c.punchesQueued),
		"punchesRejectedTotal":   atomic.LoadUint64(&c.punchesRejected),
		"syncPassesTotal":        atomic.LoadUint64(&c.syncPasses),
		"syncItemsSyncedTotal":   atomic.LoadUint64(&c.syncItemsSynced),
		"syncItemsFailedTotal":   atomic.LoadUint64(&c.syncItemsFailed),
	}
}
