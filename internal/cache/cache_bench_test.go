package cache

import (
	"testing"

	"go.uber.org/zap"
)

// BenchmarkLinkCache_Check измеряет поиск в заполненном кеше
func BenchmarkLinkCache_Check(b *testing.B) {
	c := NewLinkCache(100, zap.NewNop())
	for id := int64(0); id < 100; id++ {
		c.Save(testLink(id))
	}
	name := testLink(99).ShortName

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, found := c.Check(name); !found {
			b.Fatal("link not found")
		}
	}
}

// BenchmarkLinkCache_Save измеряет сохранение с периодическим вытеснением
func BenchmarkLinkCache_Save(b *testing.B) {
	c := NewLinkCache(100, zap.NewNop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Save(testLink(int64(i)))
	}
}
