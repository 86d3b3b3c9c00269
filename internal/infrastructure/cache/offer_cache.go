package cache

import (
	"github.com/patrickmn/go-cache"

	"tg_listing/internal/domain/entity"
)

// OfferCache хранит опубликованные объявления до перезапуска процесса.
// Записи не истекают и не вытесняются.
type OfferCache struct {
	items *cache.Cache
}

func NewOfferCache() *OfferCache {
	return &OfferCache{
		items: cache.New(cache.NoExpiration, 0),
	}
}

// Put сохраняет объявление, перезаписывая прежнее с тем же ID.
func (c *OfferCache) Put(id string, offer entity.Offer) {
	c.items.Set(id, offer.Clone(), cache.NoExpiration)
}

// Get возвращает копию объявления; изменения копии не видны другим читателям.
func (c *OfferCache) Get(id string) (entity.Offer, bool) {
	v, ok := c.items.Get(id)
	if !ok {
		return entity.Offer{}, false
	}
	offer, ok := v.(entity.Offer)
	if !ok {
		return entity.Offer{}, false
	}
	return offer.Clone(), true
}

func (c *OfferCache) Len() int {
	return c.items.ItemCount()
}
