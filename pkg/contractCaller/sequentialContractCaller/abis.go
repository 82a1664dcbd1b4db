package sequentialContractCaller

// Minimal ABI fragments covering exactly the read surface the engine uses.
// The staking position tuple is declared flattened: a static tuple encodes
// identically to its fields laid out in order, and flat outputs decode to
// plain *big.Int values instead of an anonymous struct.

const merkleDistributorAbi = `[
  {"type":"function","name":"isGrantAccepted","stateMutability":"view","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const communityRewardsAbi = `[
  {"type":"function","name":"grants","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[
    {"name":"totalGranted","type":"uint256"},
    {"name":"totalClaimed","type":"uint256"},
    {"name":"startTime","type":"uint256"},
    {"name":"endTime","type":"uint256"},
    {"name":"cliffLength","type":"uint256"},
    {"name":"vestingInterval","type":"uint256"},
    {"name":"revokedAt","type":"uint256"}
  ]},
  {"type":"function","name":"claimableRewards","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const stakingRewardsAbi = `[
  {"type":"function","name":"positions","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[
    {"name":"amount","type":"uint256"},
    {"name":"totalUnvested","type":"uint256"},
    {"name":"totalVested","type":"uint256"},
    {"name":"totalPreviouslyVested","type":"uint256"},
    {"name":"totalClaimed","type":"uint256"},
    {"name":"startTime","type":"uint256"},
    {"name":"endTime","type":"uint256"},
    {"name":"leverageMultiplier","type":"uint256"},
    {"name":"lockedUntil","type":"uint256"}
  ]},
  {"type":"function","name":"positionCurrentEarnRate","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"lastUpdateTime","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

const backerRewardsAbi = `[
  {"type":"function","name":"poolTokenClaimableRewards","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"stakingRewardsEarnedSinceLastWithdraw","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tokens","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[
    {"name":"rewardsClaimed","type":"uint256"},
    {"name":"stakingRewardsClaimed","type":"uint256"}
  ]}
]`

const poolTokensAbi = `[
  {"type":"function","name":"getTokenInfo","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[
    {"name":"pool","type":"address"},
    {"name":"tranche","type":"uint256"},
    {"name":"principalAmount","type":"uint256"},
    {"name":"principalRedeemed","type":"uint256"},
    {"name":"interestRedeemed","type":"uint256"}
  ]}
]`

const erc721EnumerableAbi = `[
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`
