package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Text resource type. */
	ResourceTypeText ResourceType = iota
	/** @brief Binary resource type. */
	ResourceTypeBinary
	/** @brief GLSL source of a shader stage or include. */
	ResourceTypeShader
	/** @brief A cached program binary. */
	ResourceTypeShaderBinary
	/** @brief Anything else; ignored by the watcher. */
	ResourceTypeNone
)

/** @brief The format version written into every program binary cache file. */
const ShaderCacheVersion uint32 = 6

/** @brief The size in bytes of ShaderCacheHeader on disk. */
const ShaderCacheHeaderSize = 7 * 4

/**
 * @brief The header of a program binary cache file, stored as little-endian
 * 32-bit words and followed by BinaryLength bytes of native binary.
 */
type ShaderCacheHeader struct {
	/** @brief The cache format version. */
	Version uint32
	/** @brief Checksum of the concatenated sources of the program. */
	Checksum uint32
	/** @brief Checksum of the renderer and version strings of the driver. */
	DriverVersionHash uint32
	/** @brief Stage kind of the main program entry. */
	Type uint32
	/** @brief Macro mask of the main program entry. */
	Macro uint32
	/** @brief Native binary format tag. */
	BinaryFormat uint32
	/** @brief Length in bytes of the binary following the header. */
	BinaryLength uint32
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}

/** @brief A parsed program binary cache file. */
type ShaderBinary struct {
	Header ShaderCacheHeader
	/** @brief The native program binary, BinaryLength bytes when the file is intact. */
	Binary []byte
}
