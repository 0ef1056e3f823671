package spine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type MixEntry struct {
	From     string  `yaml:"from"`
	To       string  `yaml:"to"`
	Duration float32 `yaml:"duration"`
}

// MixConfig 动画之间的淡入淡出时长，和骨骼文件分开维护
type MixConfig struct {
	DefaultMix float32     `yaml:"default_mix"`
	Mixes      []*MixEntry `yaml:"mixes"`
}

func LoadMixConfig(path string) (*MixConfig, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mix config: %w", err)
	}
	res, err := ParseMixConfig(bs)
	if err != nil {
		return nil, fmt.Errorf("mix config %s: %w", path, err)
	}
	return res, nil
}

func ParseMixConfig(bs []byte) (*MixConfig, error) {
	res := &MixConfig{}
	if err := yaml.Unmarshal(bs, res); err != nil {
		return nil, fmt.Errorf("decode mix config: %w", err)
	}
	for i, mix := range res.Mixes {
		if mix == nil || mix.From == "" || mix.To == "" {
			return nil, fmt.Errorf("mix %d needs both from and to", i)
		}
		if mix.Duration < 0 {
			return nil, fmt.Errorf("mix %s -> %s duration %v must be >= 0", mix.From, mix.To, mix.Duration)
		}
	}
	return res, nil
}

// Apply 先检查所有动画名，全部存在才写入 data
func (c *MixConfig) Apply(data *AnimationStateData) error {
	skeletonData := data.SkeletonData
	for _, mix := range c.Mixes {
		if skeletonData.FindAnimation(mix.From) == nil {
			return fmt.Errorf("mix from %q: %w", mix.From, ErrUnknownAnimation)
		}
		if skeletonData.FindAnimation(mix.To) == nil {
			return fmt.Errorf("mix to %q: %w", mix.To, ErrUnknownAnimation)
		}
	}
	data.DefaultMix = c.DefaultMix
	for _, mix := range c.Mixes {
		data.SetMix(mix.From, mix.To, mix.Duration)
	}
	return nil
}
