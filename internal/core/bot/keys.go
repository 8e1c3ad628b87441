package bot

// Blackboard keys shared by the agent and its leaves.
const (
	KeyShip           = "Ship"
	KeyFreq           = "Freq"
	KeyInCenter       = "InCenter"
	KeyIsAnchor       = "IsAnchor"
	KeyLastInBase     = "LastInBase"
	KeyTeamInBase     = "TeamInBase"
	KeyEnemyInBase    = "EnemyInBase"
	KeyTeamCount      = "TeamCount"
	KeyEnemyCount     = "EnemyCount"
	KeyPubTeam0       = "PubTeam0"
	KeyPubTeam1       = "PubTeam1"
	KeyTarget         = "Target"
	KeyTargetInSight  = "TargetInSight"
	KeySolution       = "Solution"
	KeyPatrolNodes    = "PatrolNodes"
	KeyPatrolIndex    = "PatrolIndex"
	KeySteerBackwards = "SteerBackwards"
	// KeyEnemyNetBulletTravel is how far the most threatening enemy's bullets reach past the
	// agent, in tiles.
	KeyEnemyNetBulletTravel = "EnemyNetBulletTravel"
)
