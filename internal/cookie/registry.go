package cookie

// ClientAlgorithm is a registry entry for a client-cookie hash family.
type ClientAlgorithm struct {
	ID      int
	Name    string
	Compute ClientComputeFunc
}

// ServerAlgorithm is a registry entry for a server-cookie hash family.
type ServerAlgorithm struct {
	ID      int
	Name    string
	Compute ServerComputeFunc
}

// clientAlgorithms and serverAlgorithms are the static, process-lifetime
// registries named in §4.C. Two entries each; lookups are a short linear
// scan, matching the spec's "O(n) over a short table" requirement.
var clientAlgorithms = [...]ClientAlgorithm{
	{ID: AlgFNV64, Name: "FNV-64", Compute: fnv64ClientCompute},
	{ID: AlgHMACSHA256_64, Name: "HMAC-SHA256-64", Compute: hmacClientCompute},
}

var serverAlgorithms = [...]ServerAlgorithm{
	{ID: AlgFNV64, Name: "FNV-64", Compute: fnvServerCompute},
	{ID: AlgHMACSHA256_64, Name: "HMAC-SHA256-64", Compute: hmacServerCompute},
}

// ClientAlgorithmByName looks up a client algorithm descriptor by its
// registry name ("FNV-64", "HMAC-SHA256-64").
func ClientAlgorithmByName(name string) (ClientAlgorithm, bool) {
	for _, a := range clientAlgorithms {
		if a.Name == name {
			return a, true
		}
	}
	return ClientAlgorithm{}, false
}

// ClientAlgorithmByID looks up a client algorithm descriptor by its id.
func ClientAlgorithmByID(id int) (ClientAlgorithm, bool) {
	for _, a := range clientAlgorithms {
		if a.ID == id {
			return a, true
		}
	}
	return ClientAlgorithm{}, false
}

// ServerAlgorithmByName looks up a server algorithm descriptor by its
// registry name.
func ServerAlgorithmByName(name string) (ServerAlgorithm, bool) {
	for _, a := range serverAlgorithms {
		if a.Name == name {
			return a, true
		}
	}
	return ServerAlgorithm{}, false
}

// ServerAlgorithmByID looks up a server algorithm descriptor by its id.
func ServerAlgorithmByID(id int) (ServerAlgorithm, bool) {
	for _, a := range serverAlgorithms {
		if a.ID == id {
			return a, true
		}
	}
	return ServerAlgorithm{}, false
}
