// Package attack はライン消去数から攻撃力を集計します。
package attack

import "sync"

// DefaultPowerPerLine は1ライン消すごとに加算される攻撃力です。
const DefaultPowerPerLine = 10

// Counter はライン消去の通知を受けて攻撃力を累積します。
// シミュレーションの通知と描画側の読み出しが別ゴルーチンでも安全に使えます。
type Counter struct {
	mu           sync.RWMutex
	powerPerLine int
	power        int
	lines        int
}

// NewCounter は新しい Counter を返します。powerPerLine が0以下の場合は DefaultPowerPerLine を使います。
func NewCounter(powerPerLine int) *Counter {
	if powerPerLine <= 0 {
		powerPerLine = DefaultPowerPerLine
	}
	return &Counter{powerPerLine: powerPerLine}
}

// OnLinesCleared はステップごとに消えたライン数を受け取り、攻撃力に加算します。
func (c *Counter) OnLinesCleared(count int) {
	if count <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines += count
	c.power += count * c.powerPerLine // 1ライン消すごとに攻撃力+10
}

// Total は現在の攻撃力を返します。
func (c *Counter) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.power
}

// Lines はこれまでに消えたライン数の合計を返します。
func (c *Counter) Lines() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lines
}
