package spine

import "fmt"

type mixKey struct {
	from, to string
}

// AnimationStateData 两个动画之间的淡入淡出时长，没有配置时使用 DefaultMix
type AnimationStateData struct {
	SkeletonData *SkeletonData
	DefaultMix   float32
	mixes        map[mixKey]float32
}

func NewAnimationStateData(skeletonData *SkeletonData) *AnimationStateData {
	if skeletonData == nil {
		panic("skeletonData cannot be nil")
	}
	return &AnimationStateData{SkeletonData: skeletonData, mixes: make(map[mixKey]float32)}
}

// SetMix 动画名不存在视为调用方错误
func (d *AnimationStateData) SetMix(fromName, toName string, duration float32) {
	from := d.SkeletonData.FindAnimation(fromName)
	if from == nil {
		panic(fmt.Sprintf("%v: %s", ErrUnknownAnimation, fromName))
	}
	to := d.SkeletonData.FindAnimation(toName)
	if to == nil {
		panic(fmt.Sprintf("%v: %s", ErrUnknownAnimation, toName))
	}
	d.SetMixAnimations(from, to, duration)
}

func (d *AnimationStateData) SetMixAnimations(from, to *Animation, duration float32) {
	if from == nil || to == nil {
		panic("animation cannot be nil")
	}
	d.mixes[mixKey{from: from.Name, to: to.Name}] = duration
}

func (d *AnimationStateData) Mix(from, to *Animation) float32 {
	if duration, ok := d.mixes[mixKey{from: from.Name, to: to.Name}]; ok {
		return duration
	}
	return d.DefaultMix
}
