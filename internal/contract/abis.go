package contract

// ABI fragments for the deployed contracts. Only the functions the client
// consumes are declared; the deployed contracts carry more surface.

// BudgetWalletABI is the SimpleBudgetWallet interface.
const BudgetWalletABI = `[
  {"type":"function","name":"createBucket","stateMutability":"nonpayable","inputs":[{"name":"bucketName","type":"string"},{"name":"monthlyLimit","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"updateBucket","stateMutability":"nonpayable","inputs":[{"name":"bucketName","type":"string"},{"name":"newMonthlyLimit","type":"uint256"},{"name":"active","type":"bool"}],"outputs":[]},
  {"type":"function","name":"fundBucket","stateMutability":"nonpayable","inputs":[{"name":"bucketName","type":"string"},{"name":"amount","type":"uint256"},{"name":"token","type":"address"}],"outputs":[]},
  {"type":"function","name":"spendFromBucket","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"},{"name":"bucketName","type":"string"},{"name":"amount","type":"uint256"},{"name":"recipient","type":"address"},{"name":"token","type":"address"},{"name":"data","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"transferBetweenBuckets","stateMutability":"nonpayable","inputs":[{"name":"fromBucket","type":"string"},{"name":"toBucket","type":"string"},{"name":"amount","type":"uint256"},{"name":"token","type":"address"}],"outputs":[]},
  {"type":"function","name":"depositToken","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"depositETH","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"getUserBuckets","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"string[]"}]},
  {"type":"function","name":"getBucket","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"bucketName","type":"string"}],"outputs":[{"name":"balance","type":"uint256"},{"name":"monthlySpent","type":"uint256"},{"name":"monthlyLimit","type":"uint256"},{"name":"active","type":"bool"}]},
  {"type":"function","name":"getBucketBalance","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"token","type":"address"},{"name":"bucketName","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getUnallocatedBalance","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getTotalBalance","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// FactoryABI is the SimpleBudgetWalletFactory interface.
const FactoryABI = `[
  {"type":"function","name":"createWallet","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"wallet","type":"address"}]},
  {"type":"function","name":"createWalletDeterministic","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"},{"name":"salt","type":"uint256"}],"outputs":[{"name":"wallet","type":"address"}]},
  {"type":"function","name":"getWallet","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"address"}]}
]`

// ERC20ABI covers the token calls used by the deposit flow.
const ERC20ABI = `[
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

// AccountABI is the 4337 smart account execution surface.
const AccountABI = `[
  {"type":"function","name":"execute","stateMutability":"nonpayable","inputs":[{"name":"dest","type":"address"},{"name":"value","type":"uint256"},{"name":"func","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"executeBatch","stateMutability":"nonpayable","inputs":[{"name":"dest","type":"address[]"},{"name":"func","type":"bytes[]"}],"outputs":[]}
]`

// AccountFactoryABI derives counterfactual smart account addresses.
const AccountFactoryABI = `[
  {"type":"function","name":"createAccount","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"getAddress","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

// EntryPointABI covers the nonce read used when building user operations.
const EntryPointABI = `[
  {"type":"function","name":"getNonce","stateMutability":"view","inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],"outputs":[{"name":"nonce","type":"uint256"}]}
]`

// ResolverABI is the L2 name resolver read surface.
const ResolverABI = `[
  {"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"name","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"text","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"outputs":[{"name":"","type":"string"}]}
]`
