package systems

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/math"
)

/** @brief The packed form of a set of uniforms, sizes in 4-byte words. */
type Layout struct {
	/** @brief The uniforms in placement order. */
	Uniforms []*Uniform
	/** @brief Total size, a multiple of Alignment. */
	Size uint32
	/** @brief The largest alignment of a member, at least 4. */
	Alignment uint32
	/** @brief Trailing words that could not be absorbed by the last member. */
	Padding uint32
}

/** @brief Size in bytes. */
func (l *Layout) ByteSize() uint32 {
	return 4 * l.Size
}

/**
 * @brief Orders uniforms so that each one starts at a multiple of its
 * alignment with as little padding as possible, and assigns each one its
 * offset and padded size.
 *
 * At every step the uniform with the highest alignment that fits at the
 * cursor is placed, earlier declarations first. When none fits, the
 * previously placed uniform grows by one word. Arrays have a fixed stride, so
 * they neither accept an alignment below 4 nor absorb padding.
 */
func PackUniforms(uniforms []*Uniform) (Layout, error) {
	layout := Layout{Alignment: 4}

	for _, u := range uniforms {
		if u.components > 0 && u.alignment < 4 {
			err := fmt.Errorf("%w: %s has alignment %d", core.ErrArrayAlignment, u.name, u.alignment)
			core.LogError("%s", err.Error())
			return Layout{}, err
		}
	}

	remaining := make([]*Uniform, len(uniforms))
	copy(remaining, uniforms)

	var cursor uint32
	var last *Uniform
	for len(remaining) > 0 {
		best := -1
		for i, u := range remaining {
			if cursor%u.alignment != 0 {
				continue
			}
			if best < 0 || u.alignment > remaining[best].alignment {
				best = i
			}
		}

		if best < 0 {
			if last == nil || last.components > 0 {
				name := "<none>"
				if last != nil {
					name = last.name
				}
				err := fmt.Errorf("%w: %s at word %d", core.ErrArrayPadding, name, cursor)
				core.LogError("%s", err.Error())
				return Layout{}, err
			}
			last.size++
			cursor++
			continue
		}

		u := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)

		u.offset = cursor
		u.placed = true
		if u.components > 0 {
			u.size = math.AlignUp(u.baseSize, 4)
			cursor += u.size * u.components
		} else {
			u.size = u.baseSize
			cursor += u.size
		}
		layout.Alignment = math.Max(layout.Alignment, u.alignment)
		layout.Uniforms = append(layout.Uniforms, u)
		last = u
	}

	if extra := math.AlignUp(cursor, layout.Alignment) - cursor; extra > 0 {
		if last != nil && last.components == 0 {
			last.size += extra
		} else {
			layout.Padding = extra
		}
		cursor += extra
	}
	layout.Size = cursor
	return layout, nil
}

/**
 * @brief Generates the members of the struct described by layout and the
 * defines redirecting each uniform name to prefix.name. Padding words are
 * declared as int members.
 */
func GenerateUniformStructDefinesText(layout Layout, prefix string) (string, string) {
	var members, defines strings.Builder
	for _, u := range layout.Uniforms {
		members.WriteString("\t" + u.uniformType.GLSLType() + " " + u.name)
		if u.components > 0 {
			fmt.Fprintf(&members, "[ %d ]", u.components)
		}
		members.WriteString(";\n")

		if u.components == 0 {
			switch extra := u.size - u.baseSize; {
			case extra == 1:
				members.WriteString("\tint " + u.name + "_padding;\n")
			case extra > 1:
				for j := uint32(0); j < extra; j++ {
					fmt.Fprintf(&members, "\tint %s_padding%d;\n", u.name, j)
				}
			}
		}

		if prefix != "" {
			fmt.Fprintf(&defines, "#define %s %s.%s\n", u.name, prefix, u.name)
		}
	}
	for i := uint32(0); i < layout.Padding; i++ {
		fmt.Fprintf(&members, "\tint material_padding%d;\n", i)
	}
	return members.String(), defines.String()
}
