package proto

// Server to client vocabulary.
const (
	ServerInit             = "io-init"
	ServerSetup            = "id"
	ServerSpawned          = "1"
	ServerAddPlayer        = "2"
	ServerPlayerBatch      = "33"
	ServerRemovePlayer     = "4"
	ServerLeaderboard      = "5"
	ServerStructures       = "6"
	ServerResource         = "9"
	ServerDeath            = "11"
	ServerRemoveStructure  = "12"
	ServerRemoveOwned      = "13"
	ServerXP               = "15"
	ServerUpgrades         = "16"
	ServerInventory        = "17"
	ServerAddProjectile    = "18"
	ServerRemoveProjectile = "19"
	ServerAnimals          = "a"
	ServerMinimap          = "mm"
	ServerChat             = "ch"
	ServerPong             = "pp"
	ServerStore            = "us"
	ServerMapPing          = "p"

	ServerClanAdd     = "ac"
	ServerClanDelete  = "ad"
	ServerClanSet     = "st"
	ServerClanMembers = "sa"
	ServerClanNotify  = "an"
)
