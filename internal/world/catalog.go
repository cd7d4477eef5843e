package world

// Weapon describes one equippable weapon. Type 0 is the primary slot, 1 the secondary.
type Weapon struct {
	ID         int
	Type       int
	Age        int
	Name       string
	Range      float64
	Damage     float64
	Speed      float64
	Gather     float64
	Projectile int
}

// Item describes one buildable or consumable item.
type Item struct {
	ID            int
	Group         int
	Name          string
	Age           int
	Place         bool
	Scale         float64
	Health        float64
	Heal          float64
	HideFromEnemy bool
}

// StoreEntry is a purchasable hat or accessory.
type StoreEntry struct {
	ID    int
	Name  string
	Price int
}

// ProjectileKind holds the ballistics of a fired projectile index.
type ProjectileKind struct {
	Index  int
	Speed  float64
	Range  float64
	Damage float64
	Scale  float64
}

// AnimalKind is one entry of the animal roster.
type AnimalKind struct {
	Index     int
	Name      string
	Scale     float64
	Speed     float64
	Health    float64
	Hostile   bool
	Damage    float64
	KillScore int
	Named     bool
}

// Catalog is the gameplay content table consumed by the simulation.
type Catalog struct {
	Weapons     []Weapon
	Items       []Item
	Hats        []StoreEntry
	Accessories []StoreEntry
	Projectiles []ProjectileKind
	Animals     []AnimalKind
	AnimalNames []string

	StartItems   []int
	StartWeapons []int
	StartPoints  int
	MoofollBonus int
	UpgradeAge   int
	MaxAge       int
	InitialXP    float64
	XPMultiplier float64
}

func (c Catalog) Weapon(id int) (Weapon, bool) {
	if id < 0 || id >= len(c.Weapons) {
		return Weapon{}, false
	}
	return c.Weapons[id], true
}

func (c Catalog) Item(id int) (Item, bool) {
	if id < 0 || id >= len(c.Items) {
		return Item{}, false
	}
	return c.Items[id], true
}

func (c Catalog) Hat(id int) (StoreEntry, bool) {
	return findEntry(c.Hats, id)
}

func (c Catalog) Accessory(id int) (StoreEntry, bool) {
	return findEntry(c.Accessories, id)
}

func (c Catalog) ProjectileKind(index int) (ProjectileKind, bool) {
	for _, kind := range c.Projectiles {
		if kind.Index == index {
			return kind, true
		}
	}
	return ProjectileKind{}, false
}

func (c Catalog) AnimalKind(index int) (AnimalKind, bool) {
	for _, kind := range c.Animals {
		if kind.Index == index {
			return kind, true
		}
	}
	return AnimalKind{}, false
}

func findEntry(entries []StoreEntry, id int) (StoreEntry, bool) {
	for _, entry := range entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return StoreEntry{}, false
}

// DefaultCatalog is a compact content table sufficient to exercise every mechanic.
func DefaultCatalog() Catalog {
	return Catalog{
		Weapons: []Weapon{
			{ID: 0, Type: 0, Age: 0, Name: "tool hammer", Range: 65, Damage: 25, Speed: 300, Gather: 1, Projectile: -1},
			{ID: 1, Type: 0, Age: 2, Name: "hand axe", Range: 70, Damage: 30, Speed: 400, Gather: 2, Projectile: -1},
			{ID: 2, Type: 0, Age: 8, Name: "great axe", Range: 75, Damage: 35, Speed: 400, Gather: 4, Projectile: -1},
			{ID: 3, Type: 0, Age: 2, Name: "short sword", Range: 110, Damage: 35, Speed: 300, Gather: 1, Projectile: -1},
			{ID: 4, Type: 0, Age: 8, Name: "katana", Range: 118, Damage: 40, Speed: 300, Gather: 1, Projectile: -1},
			{ID: 5, Type: 0, Age: 2, Name: "polearm", Range: 142, Damage: 45, Speed: 700, Gather: 1, Projectile: -1},
			{ID: 6, Type: 0, Age: 2, Name: "bat", Range: 110, Damage: 20, Speed: 300, Gather: 1, Projectile: -1},
			{ID: 7, Type: 0, Age: 2, Name: "daggers", Range: 65, Damage: 20, Speed: 100, Gather: 1, Projectile: -1},
			{ID: 8, Type: 0, Age: 2, Name: "stick", Range: 70, Damage: 1, Speed: 400, Gather: 7, Projectile: -1},
			{ID: 9, Type: 1, Age: 6, Name: "hunting bow", Range: 0, Damage: 0, Speed: 600, Gather: 0, Projectile: 0},
			{ID: 10, Type: 1, Age: 6, Name: "great hammer", Range: 75, Damage: 10, Speed: 400, Gather: 1, Projectile: -1},
			{ID: 11, Type: 1, Age: 6, Name: "wooden shield", Range: 0, Damage: 0, Speed: 1, Gather: 0, Projectile: -1},
			{ID: 12, Type: 1, Age: 8, Name: "crossbow", Range: 0, Damage: 0, Speed: 700, Gather: 0, Projectile: 2},
			{ID: 13, Type: 1, Age: 9, Name: "repeater crossbow", Range: 0, Damage: 0, Speed: 230, Gather: 0, Projectile: 3},
		},
		Items: []Item{
			{ID: 0, Group: 0, Name: "apple", Age: 0, Heal: 20},
			{ID: 1, Group: 0, Name: "cookie", Age: 3, Heal: 40},
			{ID: 2, Group: 0, Name: "cheese", Age: 7, Heal: 30},
			{ID: 3, Group: 1, Name: "wood wall", Age: 0, Place: true, Scale: 50, Health: 380},
			{ID: 4, Group: 1, Name: "stone wall", Age: 3, Place: true, Scale: 50, Health: 900},
			{ID: 5, Group: 1, Name: "castle wall", Age: 7, Place: true, Scale: 52, Health: 1500},
			{ID: 6, Group: 2, Name: "spikes", Age: 0, Place: true, Scale: 49, Health: 400},
			{ID: 7, Group: 2, Name: "greater spikes", Age: 5, Place: true, Scale: 52, Health: 500},
			{ID: 8, Group: 2, Name: "poison spikes", Age: 9, Place: true, Scale: 52, Health: 600},
			{ID: 9, Group: 2, Name: "spinning spikes", Age: 9, Place: true, Scale: 52, Health: 500},
			{ID: 10, Group: 3, Name: "windmill", Age: 0, Place: true, Scale: 45, Health: 400},
			{ID: 11, Group: 3, Name: "faster windmill", Age: 5, Place: true, Scale: 47, Health: 500},
			{ID: 12, Group: 3, Name: "power mill", Age: 8, Place: true, Scale: 47, Health: 800},
			{ID: 13, Group: 4, Name: "mine", Age: 5, Place: true, Scale: 65, Health: 1000},
			{ID: 14, Group: 5, Name: "sapling", Age: 5, Place: true, Scale: 110, Health: 1200},
			{ID: 15, Group: 6, Name: "pit trap", Age: 4, Place: true, Scale: 50, Health: 500, HideFromEnemy: true},
			{ID: 16, Group: 7, Name: "boost pad", Age: 4, Place: true, Scale: 45, Health: 150},
			{ID: 17, Group: 8, Name: "turret", Age: 7, Place: true, Scale: 43, Health: 800},
			{ID: 18, Group: 9, Name: "platform", Age: 7, Place: true, Scale: 43, Health: 300},
			{ID: 19, Group: 9, Name: "healing pad", Age: 7, Place: true, Scale: 45, Health: 400},
			{ID: 20, Group: 10, Name: "spawn pad", Age: 9, Place: true, Scale: 45, Health: 400},
			{ID: 21, Group: 11, Name: "blocker", Age: 7, Place: true, Scale: 30, Health: 400},
			{ID: 22, Group: 11, Name: "teleporter", Age: 7, Place: true, Scale: 35, Health: 200},
		},
		Hats: []StoreEntry{
			{ID: 1, Name: "marksman cap", Price: 7000},
			{ID: 6, Name: "soldier helmet", Price: 8000},
			{ID: 7, Name: "bull helmet", Price: 6000},
			{ID: 11, Name: "spike gear", Price: 10000},
			{ID: 12, Name: "booster hat", Price: 4000},
			{ID: 15, Name: "winter cap", Price: 600},
			{ID: 20, Name: "samurai armor", Price: 12000},
			{ID: 22, Name: "emp helmet", Price: 6000},
			{ID: 28, Name: "moo cap", Price: 0},
			{ID: 31, Name: "flipper hat", Price: 2500},
			{ID: 40, Name: "tank gear", Price: 15000},
		},
		Accessories: []StoreEntry{
			{ID: 9, Name: "tree cape", Price: 1000},
			{ID: 11, Name: "monkey tail", Price: 2000},
			{ID: 12, Name: "snowball", Price: 1000},
			{ID: 13, Name: "cookie cape", Price: 1500},
			{ID: 18, Name: "blood wings", Price: 20000},
			{ID: 19, Name: "shadow wings", Price: 15000},
		},
		Projectiles: []ProjectileKind{
			{Index: 0, Speed: 1.6, Range: 1400, Damage: 25, Scale: 103},
			{Index: 1, Speed: 1.5, Range: 700, Damage: 35, Scale: 103},
			{Index: 2, Speed: 2.5, Range: 1200, Damage: 35, Scale: 103},
			{Index: 3, Speed: 2, Range: 1200, Damage: 30, Scale: 103},
		},
		Animals: []AnimalKind{
			{Index: 0, Name: "cow", Scale: 72, Speed: 0.00075, Health: 500, KillScore: 150, Named: true},
			{Index: 1, Name: "pig", Scale: 72, Speed: 0.0009, Health: 800, KillScore: 200},
			{Index: 2, Name: "bull", Scale: 78, Speed: 0.00095, Health: 1800, Hostile: true, Damage: 20, KillScore: 1000},
			{Index: 3, Name: "bully", Scale: 90, Speed: 0.001, Health: 2800, Hostile: true, Damage: 40, KillScore: 2000},
			{Index: 4, Name: "wolf", Scale: 84, Speed: 0.001, Health: 300, Hostile: true, Damage: 8, KillScore: 500},
			{Index: 5, Name: "bear", Scale: 84, Speed: 0.0009, Health: 1200, Hostile: true, Damage: 25, KillScore: 800},
			{Index: 6, Name: "moostafa", Scale: 146, Speed: 0.0007, Health: 18000, Hostile: true, Damage: 100, KillScore: 8000},
			{Index: 7, Name: "treasure", Scale: 120, Speed: 0, Health: 3000, KillScore: 15000},
			{Index: 8, Name: "moofie", Scale: 90, Speed: 0.0005, Health: 9000, Hostile: true, Damage: 50, KillScore: 5000},
		},
		AnimalNames:  []string{"Sid", "Steph", "Bmoe", "Romn", "Fiona", "Vince", "Nathan", "Otis", "Theo", "Helena", "Naomi", "Milky"},
		StartItems:   []int{0, 3, 6, 10},
		StartWeapons: []int{0},
		StartPoints:  100,
		MoofollBonus: 100,
		UpgradeAge:   2,
		MaxAge:       100,
		InitialXP:    300,
		XPMultiplier: 1.2,
	}
}
