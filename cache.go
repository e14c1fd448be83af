package shotpdf

import (
	"sync"
)

var globalCache = &cache{}

type cache struct {
	m sync.Map
}

func LoadImageCache(key string) (*Image, bool) {
	if v, ok := globalCache.m.Load(key); ok {
		if i, ok := v.(*Image); ok {
			return i, true
		}
	}
	return nil, false
}

func StoreImageCache(key string, i *Image) {
	if i == nil {
		return
	}
	globalCache.m.Store(key, i)
}

// PurgeImageCache drops cached images whose key is not in keep.
func PurgeImageCache(keep []string) {
	k := make(map[string]struct{}, len(keep))
	for _, key := range keep {
		k[key] = struct{}{}
	}
	globalCache.m.Range(func(key, _ any) bool {
		if s, ok := key.(string); ok {
			if _, found := k[s]; !found {
				globalCache.m.Delete(key)
			}
		}
		return true
	})
}
