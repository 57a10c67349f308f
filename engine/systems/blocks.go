package systems

/** @brief A named uniform or storage block bound to a fixed binding point. */
type UniformBlock struct {
	name    string
	binding uint32
	/** @brief The position of the block in the per-program block index table. */
	locationIndex int
}

/** @brief Declares a block of the shader. Its index is resolved and bound on every program. */
func (sh *Shader) NewUniformBlock(name string, binding uint32) *UniformBlock {
	b := &UniformBlock{
		name:          name,
		binding:       binding,
		locationIndex: len(sh.blocks),
	}
	sh.blocks = append(sh.blocks, b)
	return b
}

func (b *UniformBlock) Name() string {
	return b.name
}

func (b *UniformBlock) Binding() uint32 {
	return b.binding
}
